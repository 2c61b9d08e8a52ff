package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/adil-shabab/Project-Management-API/db"
	"github.com/adil-shabab/Project-Management-API/internal/authz"
	"github.com/adil-shabab/Project-Management-API/internal/models"
	"github.com/adil-shabab/Project-Management-API/internal/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type CreateUserRequest struct {
	FullName    string `json:"full_name" binding:"required"`
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	PhoneNumber string `json:"phone_number"`
	Position    string `json:"position"`
	Department  string `json:"department"`
	Role        string `json:"role"`
}

type UpdateUserRequest struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email" binding:"omitempty,email"`
	PhoneNumber string `json:"phone_number"`
	Position    string `json:"position"`
	Department  string `json:"department"`
	Role        string `json:"role"`
}

func validRole(role string) bool {
	switch role {
	case models.RoleStaff, models.RoleManager, models.RoleAdmin:
		return true
	}
	return false
}

func ListUsers(ctx *gin.Context) {
	var users []models.User

	if err := db.DB.Order("full_name asc").Find(&users).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}

	responses := make([]ProfileResponse, 0, len(users))

	for _, user := range users {
		responses = append(responses, profileResponse(user))
	}

	ctx.JSON(http.StatusOK, gin.H{"data": responses})
}

func GetUser(ctx *gin.Context) {
	targetID, err := utils.GetUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User

	if err := db.DB.First(&user, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": profileResponse(user)})
}

// CreateUser provisions an account. Managers and admins only; staff
// self-registration is not offered here.
func CreateUser(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if !authz.Allowed(currentUser.Role, authz.RelNone, authz.ActionCreateUser) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to create users."})
		return
	}

	var body CreateUserRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
	body.Username = strings.TrimSpace(body.Username)

	role := body.Role

	if role == "" {
		role = models.RoleStaff
	}

	if !validRole(role) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role provided."})
		return
	}

	var count int64

	if err := db.DB.Model(&models.User{}).Where("email = ? OR username = ?", body.Email, body.Username).Count(&count).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if count > 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Username or email already exists"})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)

	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	user := models.User{
		FullName:     body.FullName,
		Username:     body.Username,
		Email:        body.Email,
		PhoneNumber:  body.PhoneNumber,
		Position:     body.Position,
		Department:   body.Department,
		Role:         role,
		PasswordHash: string(passwordHash),
		IsActive:     true,
	}

	if err := db.DB.Create(&user).Error; err != nil {
		log.Printf("Failed to create user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"data":    profileResponse(user),
	})
}

// UpdateUser edits another user's record. Admin only.
func UpdateUser(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if !authz.Allowed(currentUser.Role, authz.RelNone, authz.ActionEditUser) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to edit users."})
		return
	}

	targetID, err := utils.GetUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User

	if err := db.DB.First(&user, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		}
		return
	}

	var body UpdateUserRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if body.FullName != "" {
		user.FullName = body.FullName
	}

	if body.Email != "" {
		newEmail := strings.ToLower(strings.TrimSpace(body.Email))

		var count int64

		if err := db.DB.Model(&models.User{}).Where("email = ? AND id != ?", newEmail, user.ID).Count(&count).Error; err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if count > 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email already exists"})
			return
		}

		user.Email = newEmail
	}

	if body.PhoneNumber != "" {
		user.PhoneNumber = body.PhoneNumber
	}

	if body.Position != "" {
		user.Position = body.Position
	}

	if body.Department != "" {
		user.Department = body.Department
	}

	if body.Role != "" {
		if !validRole(body.Role) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role provided."})
			return
		}
		user.Role = body.Role
	}

	if err := db.DB.Save(&user).Error; err != nil {
		log.Printf("Failed to update user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully",
		"data":    profileResponse(user),
	})
}

// DeleteUser removes a user and, via cascades, their tasks, memberships and
// notifications. Admin only.
func DeleteUser(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if !authz.Allowed(currentUser.Role, authz.RelNone, authz.ActionDeleteUser) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to delete users."})
		return
	}

	targetID, err := utils.GetUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if targetID == currentUser.ID {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete your own account."})
		return
	}

	var user models.User

	if err := db.DB.First(&user, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		}
		return
	}

	if err := db.DB.Delete(&user).Error; err != nil {
		log.Printf("Failed to delete user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
