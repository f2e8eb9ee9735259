package routes

import (
	"Roomly/controllers"
	"Roomly/middleware"
	"Roomly/services/allocation"
	"Roomly/services/party"
	"Roomly/services/redis"
	"Roomly/sync"
	utils "Roomly/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, redisClient *redis.RedisClient,
	engine *allocation.Engine, partyManager *party.Manager, syncManager *sync.SyncManager) {

	// utils global
	router.Use(utils.Logger())
	router.Use(utils.ErrorHandler())

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes group
	api := router.Group("/")

	api.GET("/ping", controllers.Ping)

	api.POST("/signup", controllers.SignUp(db))

	api.POST("/login", controllers.Login(db))

	api.GET("/users/:username", controllers.GetUserPublicInfo(db))

	api.GET("/rooms", controllers.GetAllRooms(db))

	api.GET("/rooms/:room_id", controllers.GetRoomInfo(db))

	api.GET("/parties/:party_id", controllers.GetPartyInfo(db))

	authentication := api.Group("/auth")
	authentication.Use(middleware.AuthRequired)
	{
		authentication.DELETE("/logout", controllers.Logout)

		authentication.GET("/me", controllers.GetUserPrivateInfo(db))

		authentication.POST("/rooms", controllers.CreateRoom(db))

		authentication.PATCH("/rooms/:room_id", controllers.UpdateRoom(db, syncManager))

		authentication.DELETE("/rooms/:room_id", controllers.DeleteRoom(engine, db, syncManager))

		authentication.POST("/rooms/:room_id/apply", controllers.ApplyForRoom(engine, db, syncManager))

		authentication.POST("/rooms/:room_id/selectTenant", controllers.SelectTenant(engine, db, syncManager))

		authentication.POST("/rooms/:room_id/selectParty", controllers.SelectParty(engine, db, syncManager))

		authentication.POST("/rooms/:room_id/parties", controllers.CreateParty(partyManager, db, syncManager))

		authentication.POST("/parties/:party_id/join", controllers.JoinParty(partyManager, db, syncManager))

		authentication.POST("/parties/:party_id/leave", controllers.LeaveParty(partyManager, db, syncManager))
	}
}
