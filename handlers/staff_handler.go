package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// StaffHandler implements the staff gate. The credential check is a plain
// literal comparison, same as the page it replaces: this is deliberately not
// a security boundary. The token it mints is a session convenience for the
// admin panel, nothing more.
type StaffHandler struct {
	staffUsername string
	staffPassword string
	jwtSecret     []byte
}

func NewStaffHandler(username, password, jwtSecret string) *StaffHandler {
	return &StaffHandler{
		staffUsername: username,
		staffPassword: password,
		jwtSecret:     []byte(jwtSecret),
	}
}

func (h *StaffHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if input.Username == "" || input.Password == "" {
		badRequestResponse(w, r, errors.New("username and password are required"))
		return
	}

	if input.Username != h.staffUsername || input.Password != h.staffPassword {
		unauthorizedResponse(w, r, "invalid staff credentials")
		return
	}

	claims := jwt.MapClaims{
		"role": "staff",
		"exp":  time.Now().Add(time.Hour * 24).Unix(),
		"iat":  time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(h.jwtSecret)
	if err != nil {
		serverErrorResponse(w, r, fmt.Errorf("failed to sign token: %w", err))
		return
	}

	response := jsonResponse{"token": tokenString}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
