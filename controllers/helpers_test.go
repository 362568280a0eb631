package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gensethub/config"
	"gensethub/database"
	"gensethub/utils"
)

// setupTestDB points the global connection at a fresh in-memory database
func setupTestDB(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.InitConfig()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	database.DB = db
	require.NoError(t, database.RunMigrations())
}

// testRouter builds an engine whose requests carry the given identity, as if
// the auth middleware had already run
func testRouter(userID uint, role string, register func(r *gin.Engine)) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("email", "caller@example.com")
		c.Set("role", role)
	})
	register(r)
	return r
}

func performRequest(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func createTestUser(t *testing.T, name, email, role string) database.User {
	t.Helper()
	hash, err := utils.HashPassword("secret123")
	require.NoError(t, err)
	user := database.User{
		Name:         name,
		Email:        email,
		Phone:        "5550001111",
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, database.DB.Create(&user).Error)
	return user
}

func createTestGenset(t *testing.T, price float64, stock int) database.Genset {
	t.Helper()
	genset := database.Genset{
		ModelName: "DG-500X",
		Brand:     "Kirloskar",
		Capacity:  500,
		FuelType:  "Diesel",
		Phase:     "Three Phase",
		Price:     price,
		Condition: "New",
		Stock:     stock,
		IsActive:  true,
	}
	require.NoError(t, database.DB.Create(&genset).Error)
	return genset
}
