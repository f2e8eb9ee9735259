package controllers

import (
	"github.com/gin-gonic/gin"
)

// @Summary Server healthcheck
// @Description Returns pong if the server is alive
// @Tags network
// @Produce json
// @Success 200 {object} object{message=string}
// @Router /ping [get]
func Ping(c *gin.Context) {
	c.JSON(200, gin.H{"message": "pong"})
}
