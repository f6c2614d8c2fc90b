package handlers

import "github.com/HiroshigeAoki/slack-game-master/internal/models"

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"operation successful"`
}

// Type alias so swag can resolve the model in annotations.
type GameSession = models.GameSession
