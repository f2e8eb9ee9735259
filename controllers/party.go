package controllers

import (
	models "Roomly/models/postgres"
	"Roomly/services/party"
	"Roomly/sync"
	"Roomly/utils"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func partyResponse(p *models.Party) gin.H {
	members := make([]gin.H, len(p.Members))
	for i, m := range p.Members {
		members[i] = gin.H{
			"username":  m.Username,
			"joined_at": m.JoinedAt,
		}
	}
	return gin.H{
		"party_id":        p.ID,
		"room_id":         p.RoomID,
		"leader_username": p.LeaderUsername,
		"max_members":     p.MaxMembers,
		"member_count":    p.MemberCount,
		"status":          p.Status,
		"description":     p.Description,
		"created_at":      p.CreatedAt,
		"members":         members,
	}
}

func loadPartyForResponse(db *gorm.DB, partyID string) (*models.Party, error) {
	var p models.Party
	err := db.Preload("Members").Where("id = ?", partyID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// @Summary Creates a party for a multi tenant room
// @Description The caller becomes leader and first member of a new party applying for the room
// @Tags party
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param room_id path string true "room_id"
// @Param description formData string false "Short pitch shown to the room owner"
// @Success 201 {object} object{party_id=string}
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /auth/rooms/{room_id}/parties [post]
// @Security ApiKeyAuth
func CreateParty(manager *party.Manager, db *gorm.DB, sm *sync.SyncManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, db)
		if !ok {
			return
		}
		roomID := c.Param("room_id")
		description := c.PostForm("description")

		partyID, err := manager.CreateParty(roomID, user.Username, description)
		if err != nil {
			c.JSON(utils.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		syncRoom(sm, roomID)

		c.JSON(http.StatusCreated, gin.H{"party_id": partyID, "message": "Party created successfully"})
	}
}

// @Summary Gives info of a party
// @Description Given a party id, returns the party with its member roster
// @Tags party
// @Produce json
// @Param party_id path string true "Id of the party wanted"
// @Success 200 {object} object{party_id=string,status=string}
// @Failure 404 {object} object{error=string}
// @Failure 500 {object} object{error=string}
// @Router /parties/{party_id} [get]
func GetPartyInfo(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		partyID := c.Param("party_id")

		p, err := loadPartyForResponse(db, partyID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "Party not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusOK, partyResponse(p))
	}
}

// @Summary Joins an open party
// @Description Adds the caller to the party; a join that fills the last seat marks the party full
// @Tags party
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param party_id path string true "party_id"
// @Success 200 {object} object{party_id=string,status=string}
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /auth/parties/{party_id}/join [post]
// @Security ApiKeyAuth
func JoinParty(manager *party.Manager, db *gorm.DB, sm *sync.SyncManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, db)
		if !ok {
			return
		}
		partyID := c.Param("party_id")

		// Early duplicate check; the unique index on member rows stays
		// authoritative under races.
		member, err := utils.IsPartyMember(db, partyID, user.Username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		if member {
			c.JSON(http.StatusConflict, gin.H{"error": "You are already a member of this party"})
			return
		}

		if err := manager.JoinParty(partyID, user.Username); err != nil {
			c.JSON(utils.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}

		p, err := loadPartyForResponse(db, partyID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching party"})
			return
		}
		syncRoom(sm, p.RoomID)

		c.JSON(http.StatusOK, partyResponse(p))
	}
}

// @Summary Leaves a party
// @Description Removes the caller; leadership passes to the earliest remaining member, and an emptied party is dissolved
// @Tags party
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param party_id path string true "party_id"
// @Success 200 {object} object{party_id=string,dissolved=boolean}
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /auth/parties/{party_id}/leave [post]
// @Security ApiKeyAuth
func LeaveParty(manager *party.Manager, db *gorm.DB, sm *sync.SyncManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, db)
		if !ok {
			return
		}
		partyID := c.Param("party_id")

		// Resolve the room before the leave in case the party dissolves.
		existing, err := utils.CheckPartyExists(db, partyID)
		if err != nil {
			c.JSON(utils.HTTPStatus(err), gin.H{"error": "Party not found"})
			return
		}
		roomID := existing.RoomID

		member, err := utils.IsPartyMember(db, partyID, user.Username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		if !member {
			c.JSON(http.StatusConflict, gin.H{"error": "You are not a member of this party"})
			return
		}

		dissolved, err := manager.LeaveParty(partyID, user.Username)
		if err != nil {
			c.JSON(utils.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		syncRoom(sm, roomID)

		c.JSON(http.StatusOK, gin.H{
			"party_id":  partyID,
			"dissolved": dissolved,
			"message":   "Left party successfully",
		})
	}
}
