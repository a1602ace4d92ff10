package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/recordhub/server/internal/credential"
	"github.com/recordhub/server/internal/logger"
	"github.com/recordhub/server/internal/middleware"
	"github.com/recordhub/server/internal/model"
	"github.com/recordhub/server/internal/store"
)

// phoneLength is the required length of a phone number used as a lookup key.
const phoneLength = 10

// UserHandler handles the /users resource.
type UserHandler struct {
	store  *store.Store
	hasher *credential.Hasher
}

// NewUserHandler creates a new user handler
func NewUserHandler(st *store.Store, hasher *credential.Hasher) *UserHandler {
	return &UserHandler{store: st, hasher: hasher}
}

// createUserRequest is the request body for POST /users
type createUserRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Phone        string `json:"phone"`
	Password     string `json:"password"`
	TOSAgreement bool   `json:"tosAgreement"`
}

// updateUserRequest is the request body for PUT /users
type updateUserRequest struct {
	Phone     string `json:"phone"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

// HandleCreate handles POST /users. Registration is unauthenticated; the
// phone number becomes the record key, so uniqueness is enforced by the
// store's exclusive create rather than a lookup-then-write.
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	decodeBody(r, &req)

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Password = strings.TrimSpace(req.Password)

	if req.FirstName == "" || req.LastName == "" || req.Phone == "" || req.Password == "" || !req.TOSAgreement {
		respondWithError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	digest, err := h.hasher.Hash(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("could not hash the user's password")
		respondWithError(w, http.StatusInternalServerError, "could not create the new user")
		return
	}

	user := model.User{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		HashedPassword: digest,
		TOSAgreement:   true,
	}

	err = h.store.Create(r.Context(), store.CollectionUsers, req.Phone, user)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, nil)
	case errors.Is(err, store.ErrAlreadyExists):
		respondWithError(w, http.StatusBadRequest, "a user with that phone number already exists")
	case errors.Is(err, store.ErrInvalidKey):
		respondWithError(w, http.StatusBadRequest, "invalid field: phone")
	default:
		log.Error().Err(err).Str("phone", logger.MaskPhone(req.Phone)).Msg("could not create user")
		respondWithError(w, http.StatusInternalServerError, "could not create the new user")
	}
}

// HandleRead handles GET /users?phone=XXXXXXXXXX. The stored password digest
// never leaves the server.
func (h *UserHandler) HandleRead(w http.ResponseWriter, r *http.Request) {
	phone, ok := h.authorizedPhone(w, r, r.URL.Query().Get("phone"))
	if !ok {
		return
	}

	var user model.User
	err := h.store.Read(r.Context(), store.CollectionUsers, phone, &user)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, user.Sanitized())
	case errors.Is(err, store.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "user not found")
	default:
		log.Error().Err(err).Str("phone", logger.MaskPhone(phone)).Msg("could not read user")
		respondWithError(w, http.StatusInternalServerError, "could not read the user")
	}
}

// HandleUpdate handles PUT /users. Only the provided fields are merged into
// the stored record; a provided password is re-hashed before storage.
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	decodeBody(r, &req)

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Password = strings.TrimSpace(req.Password)

	phone, ok := h.authorizedPhone(w, r, req.Phone)
	if !ok {
		return
	}

	if req.FirstName == "" && req.LastName == "" && req.Password == "" {
		respondWithError(w, http.StatusBadRequest, "missing fields to update")
		return
	}

	var user model.User
	if err := h.store.Read(r.Context(), store.CollectionUsers, phone, &user); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(w, http.StatusBadRequest, "the specified user does not exist")
			return
		}
		log.Error().Err(err).Str("phone", logger.MaskPhone(phone)).Msg("could not read user for update")
		respondWithError(w, http.StatusInternalServerError, "could not update the user")
		return
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Password != "" {
		digest, err := h.hasher.Hash(req.Password)
		if err != nil {
			log.Error().Err(err).Msg("could not hash the user's password")
			respondWithError(w, http.StatusInternalServerError, "could not update the user")
			return
		}
		user.HashedPassword = digest
	}

	if err := h.store.Update(r.Context(), store.CollectionUsers, phone, user); err != nil {
		log.Error().Err(err).Str("phone", logger.MaskPhone(phone)).Msg("could not update user")
		respondWithError(w, http.StatusInternalServerError, "could not update the user")
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

// HandleDelete handles DELETE /users?phone=XXXXXXXXXX. Outstanding tokens
// for the deleted user are revoked as part of the delete.
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	phone, ok := h.authorizedPhone(w, r, r.URL.Query().Get("phone"))
	if !ok {
		return
	}

	err := h.store.Delete(r.Context(), store.CollectionUsers, phone)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		respondWithError(w, http.StatusBadRequest, "the specified user does not exist")
		return
	default:
		log.Error().Err(err).Str("phone", logger.MaskPhone(phone)).Msg("could not delete user")
		respondWithError(w, http.StatusInternalServerError, "could not delete the user")
		return
	}

	// Best effort: a failure here leaves orphan tokens that expire on their
	// own within the hour.
	h.revokeTokens(r, phone)

	respondJSON(w, http.StatusOK, nil)
}

// revokeTokens deletes all tokens issued to the given phone number.
func (h *UserHandler) revokeTokens(r *http.Request, phone string) {
	ids, err := h.store.List(r.Context(), store.CollectionTokens)
	if err != nil {
		log.Error().Err(err).Msg("could not list tokens for revocation")
		return
	}
	for _, id := range ids {
		var token model.Token
		if err := h.store.Read(r.Context(), store.CollectionTokens, id, &token); err != nil {
			continue
		}
		if token.Phone != phone {
			continue
		}
		if err := h.store.Delete(r.Context(), store.CollectionTokens, id); err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Error().Err(err).Str("phone", logger.MaskPhone(phone)).Msg("could not revoke token")
		}
	}
}

// authorizedPhone validates the target phone number and checks that the
// caller's token was issued for it. Returns the trimmed phone and whether
// the request may proceed; on failure the response has already been written.
func (h *UserHandler) authorizedPhone(w http.ResponseWriter, r *http.Request, phone string) (string, bool) {
	phone = strings.TrimSpace(phone)
	if len(phone) != phoneLength {
		respondWithError(w, http.StatusBadRequest, "invalid field: phone. phone must be a string of length 10")
		return "", false
	}

	token, ok := middleware.GetToken(r.Context())
	if !ok {
		// The route was registered without RequireToken; treat as a server
		// misconfiguration rather than letting the request through.
		log.Error().Msg("no token in context on protected route")
		respondWithError(w, http.StatusInternalServerError, "internal error")
		return "", false
	}
	if token.Phone != phone {
		respondWithError(w, http.StatusForbidden, "token does not match the specified user")
		return "", false
	}
	return phone, true
}
