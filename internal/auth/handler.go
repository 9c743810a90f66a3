package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/busfleet/opsproxy/internal/accounts"
	"github.com/busfleet/opsproxy/pkg"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	type loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var loginReq loginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		log.Errorf("login, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "invalid request", http.StatusBadRequest)
		return
	}

	if loginReq.Email == "" || loginReq.Password == "" {
		pkg.WriteJSONError(w, "email and password required", http.StatusBadRequest)
		return
	}

	token, summary, err := handler.service.Login(r.Context(), loginReq.Email, loginReq.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			pkg.WriteJSONError(w, ErrInvalidCredentials.Error(), http.StatusUnauthorized)
			return
		}
		log.Errorf("login failed: %s", err)
		pkg.WriteJSONError(w, "login failed", http.StatusInternalServerError)
		return
	}

	userIP, err := pkg.ReadUserIP(r)
	if err != nil {
		userIP = "unknown"
	}
	log.Tracef("new login for account %d from [%s]", summary.ID, userIP)

	resp, err := json.Marshal(struct {
		Token string           `json:"token"`
		User  accounts.Summary `json:"user"`
	}{Token: token, User: summary})
	if err != nil {
		pkg.WriteJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resp)
}

func (handler *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		pkg.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	type changePasswordRequest struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.WriteJSONError(w, "invalid request", http.StatusBadRequest)
		return
	}

	confirmation, err := handler.service.ChangePassword(
		r.Context(), claims.AccountID, req.CurrentPassword, req.NewPassword,
	)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials),
			errors.Is(err, ErrWeakPassword),
			errors.Is(err, ErrPasswordReused),
			errors.Is(err, accounts.ErrAccountNotFound):
			pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			log.Errorf("change password for account %d: %s", claims.AccountID, err)
			pkg.WriteJSONError(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	resp, err := json.Marshal(confirmation)
	if err != nil {
		pkg.WriteJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resp)
}

func (handler *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "PUT, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		pkg.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var update accounts.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		pkg.WriteJSONError(w, "invalid request", http.StatusBadRequest)
		return
	}

	summary, err := handler.service.UpdateProfile(r.Context(), claims.AccountID, update)
	if err != nil {
		if errors.Is(err, accounts.ErrAccountNotFound) {
			pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Errorf("update profile for account %d: %s", claims.AccountID, err)
		pkg.WriteJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp, err := json.Marshal(summary)
	if err != nil {
		pkg.WriteJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resp)
}

func (handler *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		pkg.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	summary, err := handler.service.GetAccountSummary(r.Context(), claims.AccountID)
	if err != nil {
		if errors.Is(err, accounts.ErrAccountNotFound) {
			pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Errorf("get account %d: %s", claims.AccountID, err)
		pkg.WriteJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp, err := json.Marshal(summary)
	if err != nil {
		pkg.WriteJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resp)
}
