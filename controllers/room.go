package controllers

import (
	constants "Roomly/constants/allocation"
	models "Roomly/models/postgres"
	"Roomly/services/allocation"
	"Roomly/sync"
	"Roomly/utils"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// roomResponse flattens a room (with preloaded applicants and parties)
// into the wire shape shared by every room endpoint.
func roomResponse(room *models.Room) gin.H {
	applicants := make([]string, len(room.Applicants))
	for i, a := range room.Applicants {
		applicants[i] = a.Username
	}
	parties := make([]string, len(room.Parties))
	for i, p := range room.Parties {
		parties[i] = p.ID
	}

	resp := gin.H{
		"room_id":        room.ID,
		"owner_username": room.OwnerUsername,
		"title":          room.Title,
		"description":    room.Description,
		"location":       room.Location,
		"price":          room.Price,
		"deposit":        room.Deposit,
		"size":           room.Size,
		"room_type":      room.RoomType,
		"status":         room.Status,
		"is_available":   room.IsAvailable(),
		"max_occupants":  room.MaxOccupants,
		"amenities":      room.Amenities,
		"available_from": room.AvailableFrom,
		"created_at":     room.CreatedAt,
		"applicants":     applicants,
		"parties":        parties,
	}
	if room.SelectedID != "" {
		resp["selected_applicant"] = gin.H{
			"kind": room.SelectedKind,
			"id":   room.SelectedID,
		}
	}
	return resp
}

// loadRoomForResponse re-reads a room with its application sets after a
// mutation committed.
func loadRoomForResponse(db *gorm.DB, roomID string) (*models.Room, error) {
	var room models.Room
	err := db.Preload("Applicants").Preload("Parties").Where("id = ?", roomID).First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// syncRoom refreshes the cache and watchers; failures are logged, never
// surfaced, since the mutation already committed.
func syncRoom(sm *sync.SyncManager, roomID string) {
	if sm == nil {
		return
	}
	if err := sm.SyncRoomView(roomID); err != nil {
		log.Printf("[SYNC-ERROR] room %s: %v", roomID, err)
	}
}

type createRoomRequest struct {
	Title         string         `json:"title" binding:"required"`
	Description   string         `json:"description"`
	Location      string         `json:"location"`
	Price         int            `json:"price"`
	Deposit       int            `json:"deposit"`
	Size          int            `json:"size"`
	RoomType      string         `json:"room_type" binding:"required"`
	MaxOccupants  int            `json:"max_occupants"`
	Amenities     datatypes.JSON `json:"amenities"`
	AvailableFrom *time.Time     `json:"available_from"`
}

// @Summary Creates a new room listing
// @Description Room owners publish a listing; it starts out available
// @Tags room
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param room body controllers.createRoomRequest true "Listing data"
// @Success 201 {object} object{room_id=string}
// @Failure 400 {object} object{error=string}
// @Failure 403 {object} object{error=string}
// @Router /auth/rooms [post]
// @Security ApiKeyAuth
func CreateRoom(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, db)
		if !ok {
			return
		}
		if !user.IsRoomOwner {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only room owners can create listings"})
			return
		}

		var req createRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room data: " + err.Error()})
			return
		}

		if req.RoomType != constants.RoomTypeSingleTenant && req.RoomType != constants.RoomTypeMultiTenant {
			c.JSON(http.StatusBadRequest, gin.H{"error": "room_type must be single_tenant or multi_tenant"})
			return
		}

		maxOccupants := req.MaxOccupants
		if req.RoomType == constants.RoomTypeSingleTenant {
			maxOccupants = 1
		} else if maxOccupants < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_occupants must be a positive integer"})
			return
		}

		room := models.Room{
			OwnerUsername: user.Username,
			Title:         req.Title,
			Description:   req.Description,
			Location:      req.Location,
			Price:         req.Price,
			Deposit:       req.Deposit,
			Size:          req.Size,
			RoomType:      req.RoomType,
			Status:        constants.RoomStatusAvailable,
			MaxOccupants:  maxOccupants,
		}
		if len(req.Amenities) > 0 {
			room.Amenities = req.Amenities
		}
		if req.AvailableFrom != nil {
			room.AvailableFrom = *req.AvailableFrom
		}

		if err := db.Create(&room).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating room"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"room_id": room.ID, "message": "Room created successfully"})
	}
}

// @Summary Lists all open room listings
// @Description Returns every room that can still receive applications
// @Tags room
// @Produce json
// @Success 200 {array} object{room_id=string,title=string,location=string,price=integer,room_type=string,status=string}
// @Failure 500 {object} object{error=string}
// @Router /rooms [get]
func GetAllRooms(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var rooms []models.Room
		result := db.Where("status <> ?", constants.RoomStatusTaken).
			Order("created_at DESC").Find(&rooms)
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching rooms"})
			return
		}

		simplified := make([]gin.H, len(rooms))
		for i, room := range rooms {
			simplified[i] = gin.H{
				"room_id":       room.ID,
				"title":         room.Title,
				"location":      room.Location,
				"price":         room.Price,
				"room_type":     room.RoomType,
				"status":        room.Status,
				"max_occupants": room.MaxOccupants,
				"created_at":    room.CreatedAt,
			}
		}
		c.JSON(http.StatusOK, simplified)
	}
}

// @Summary Gives info of a room
// @Description Given a room id, returns the listing with its application state
// @Tags room
// @Produce json
// @Param room_id path string true "Id of the room wanted"
// @Success 200 {object} object{room_id=string,status=string}
// @Failure 404 {object} object{error=string}
// @Failure 500 {object} object{error=string}
// @Router /rooms/{room_id} [get]
func GetRoomInfo(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("room_id")

		room, err := loadRoomForResponse(db, roomID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusOK, roomResponse(room))
	}
}

type updateRoomRequest struct {
	Title         *string         `json:"title"`
	Description   *string         `json:"description"`
	Location      *string         `json:"location"`
	Price         *int            `json:"price"`
	Deposit       *int            `json:"deposit"`
	Size          *int            `json:"size"`
	Amenities     *datatypes.JSON `json:"amenities"`
	AvailableFrom *time.Time      `json:"available_from"`
}

// @Summary Updates a room listing
// @Description Owner-only edit of presentational fields; allocation state is untouchable here
// @Tags room
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param room_id path string true "room_id"
// @Success 200 {object} object{room_id=string}
// @Failure 403 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /auth/rooms/{room_id} [patch]
// @Security ApiKeyAuth
func UpdateRoom(db *gorm.DB, sm *sync.SyncManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, db)
		if !ok {
			return
		}
		roomID := c.Param("room_id")

		room, err := utils.CheckRoomExists(db, roomID)
		if err != nil {
			c.JSON(utils.HTTPStatus(err), gin.H{"error": "Room not found"})
			return
		}
		if room.OwnerUsername != user.Username {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only room owner can update this listing"})
			return
		}

		var req updateRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room data: " + err.Error()})
			return
		}

		updates := map[string]interface{}{}
		if req.Title != nil {
			updates["title"] = *req.Title
		}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if req.Location != nil {
			updates["location"] = *req.Location
		}
		if req.Price != nil {
			updates["price"] = *req.Price
		}
		if req.Deposit != nil {
			updates["deposit"] = *req.Deposit
		}
		if req.Size != nil {
			updates["size"] = *req.Size
		}
		if req.Amenities != nil {
			updates["amenities"] = *req.Amenities
		}
		if req.AvailableFrom != nil {
			updates["available_from"] = *req.AvailableFrom
		}

		if len(updates) > 0 {
			if err := db.Model(&models.Room{}).Where("id = ?", roomID).Updates(updates).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating room"})
				return
			}
			syncRoom(sm, roomID)
		}

		c.JSON(http.StatusOK, gin.H{"room_id": roomID, "message": "Room updated successfully"})
	}
}

// @Summary Applies individually for a single tenant room
// @Description Adds the caller to the room's applicant set; first application moves the room to pending
// @Tags room
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param room_id path string true "room_id"
// @Success 200 {object} object{room_id=string,status=string}
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /auth/rooms/{room_id}/apply [post]
// @Security ApiKeyAuth
func ApplyForRoom(engine *allocation.Engine, db *gorm.DB, sm *sync.SyncManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, db)
		if !ok {
			return
		}
		roomID := c.Param("room_id")

		// Early duplicate check; the engine's ON CONFLICT guard stays
		// authoritative under races.
		applied, err := utils.IsApplicant(db, roomID, user.Username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		if applied {
			c.JSON(http.StatusConflict, gin.H{"error": "You already applied for this room"})
			return
		}

		if err := engine.ApplyIndividually(roomID, user.Username); err != nil {
			c.JSON(utils.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		syncRoom(sm, roomID)

		room, err := loadRoomForResponse(db, roomID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching room"})
			return
		}
		c.JSON(http.StatusOK, roomResponse(room))
	}
}

// @Summary Selects the tenant for a single tenant room
// @Description Owner's final, irreversible choice; the room becomes taken
// @Tags room
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param room_id path string true "room_id"
// @Param tenant formData string true "Username of the chosen applicant"
// @Success 200 {object} object{room_id=string,status=string}
// @Failure 400 {object} object{error=string}
// @Failure 403 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /auth/rooms/{room_id}/selectTenant [post]
// @Security ApiKeyAuth
func SelectTenant(engine *allocation.Engine, db *gorm.DB, sm *sync.SyncManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, db)
		if !ok {
			return
		}
		roomID := c.Param("room_id")

		tenant := c.PostForm("tenant")
		if tenant == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Tenant username is required"})
			return
		}

		if err := engine.SelectTenant(roomID, user.Username, tenant); err != nil {
			c.JSON(utils.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		syncRoom(sm, roomID)

		room, err := loadRoomForResponse(db, roomID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching room"})
			return
		}
		c.JSON(http.StatusOK, roomResponse(room))
	}
}

// @Summary Selects the winning party for a multi tenant room
// @Description Owner's final, irreversible choice; the party is closed and the room becomes taken
// @Tags room
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param room_id path string true "room_id"
// @Param party_id formData string true "Id of the chosen party"
// @Success 200 {object} object{room_id=string,status=string}
// @Failure 400 {object} object{error=string}
// @Failure 403 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /auth/rooms/{room_id}/selectParty [post]
// @Security ApiKeyAuth
func SelectParty(engine *allocation.Engine, db *gorm.DB, sm *sync.SyncManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, db)
		if !ok {
			return
		}
		roomID := c.Param("room_id")

		partyID := c.PostForm("party_id")
		if partyID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Party ID is required"})
			return
		}

		if err := engine.SelectParty(roomID, user.Username, partyID); err != nil {
			c.JSON(utils.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		syncRoom(sm, roomID)

		room, err := loadRoomForResponse(db, roomID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching room"})
			return
		}
		c.JSON(http.StatusOK, roomResponse(room))
	}
}

// @Summary Deletes a room listing
// @Description Owner-only; rejected while undecided applications exist
// @Tags room
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param room_id path string true "room_id"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /auth/rooms/{room_id} [delete]
// @Security ApiKeyAuth
func DeleteRoom(engine *allocation.Engine, db *gorm.DB, sm *sync.SyncManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, db)
		if !ok {
			return
		}
		roomID := c.Param("room_id")

		if err := engine.DeleteRoom(roomID, user.Username); err != nil {
			c.JSON(utils.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}

		if sm != nil {
			if err := sm.RemoveRoomView(roomID); err != nil {
				log.Printf("[SYNC-ERROR] room %s: %v", roomID, err)
			}
		}

		c.JSON(http.StatusOK, gin.H{"message": "Room deleted successfully"})
	}
}
