package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/recordhub/server/internal/credential"
	"github.com/recordhub/server/internal/logger"
	"github.com/recordhub/server/internal/model"
	"github.com/recordhub/server/internal/store"
)

const (
	// tokenIDLength is the length of minted token identifiers.
	tokenIDLength = 20
	// tokenTTL is how long a freshly minted or extended token is valid.
	tokenTTL = time.Hour
)

// TokenHandler handles the /tokens resource. Possession of a token id is the
// capability; the id is only ever handed to a caller who proved the password.
type TokenHandler struct {
	store  *store.Store
	hasher *credential.Hasher
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(st *store.Store, hasher *credential.Hasher) *TokenHandler {
	return &TokenHandler{store: st, hasher: hasher}
}

// createTokenRequest is the request body for POST /tokens
type createTokenRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// updateTokenRequest is the request body for PUT /tokens
type updateTokenRequest struct {
	ID     string `json:"id"`
	Extend bool   `json:"extend"`
}

// HandleCreate handles POST /tokens: verify the password against the stored
// digest, then mint a token valid for one hour.
func (h *TokenHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createTokenRequest
	decodeBody(r, &req)

	req.Phone = strings.TrimSpace(req.Phone)
	req.Password = strings.TrimSpace(req.Password)

	if req.Phone == "" || req.Password == "" {
		respondWithError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	var user model.User
	err := h.store.Read(r.Context(), store.CollectionUsers, req.Phone, &user)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidKey) {
			respondWithError(w, http.StatusBadRequest, "could not find the specified user")
			return
		}
		log.Error().Err(err).Str("phone", logger.MaskPhone(req.Phone)).Msg("could not read user for token creation")
		respondWithError(w, http.StatusInternalServerError, "could not create the token")
		return
	}

	match, err := h.hasher.Compare(req.Password, user.HashedPassword)
	if err != nil {
		log.Error().Err(err).Msg("could not hash the supplied password")
		respondWithError(w, http.StatusInternalServerError, "could not create the token")
		return
	}
	if !match {
		respondWithError(w, http.StatusBadRequest, "password did not match the specified user's stored password")
		return
	}

	id, err := credential.RandomID(tokenIDLength)
	if err != nil {
		log.Error().Err(err).Msg("could not generate token id")
		respondWithError(w, http.StatusInternalServerError, "could not create the token")
		return
	}

	token := model.Token{
		ID:      id,
		Phone:   req.Phone,
		Expires: time.Now().Add(tokenTTL),
	}

	if err := h.store.Create(r.Context(), store.CollectionTokens, id, token); err != nil {
		log.Error().Err(err).Str("phone", logger.MaskPhone(req.Phone)).Msg("could not persist token")
		respondWithError(w, http.StatusInternalServerError, "could not create the token")
		return
	}

	respondJSON(w, http.StatusOK, token)
}

// HandleRead handles GET /tokens?id=...
func (h *TokenHandler) HandleRead(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if len(id) != tokenIDLength {
		respondWithError(w, http.StatusBadRequest, "invalid field: id")
		return
	}

	var token model.Token
	err := h.store.Read(r.Context(), store.CollectionTokens, id, &token)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, token)
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrInvalidKey):
		respondWithError(w, http.StatusNotFound, "token not found")
	default:
		log.Error().Err(err).Msg("could not read token")
		respondWithError(w, http.StatusInternalServerError, "could not read the token")
	}
}

// HandleUpdate handles PUT /tokens: extend an unexpired token by another
// hour. Expired tokens cannot be revived.
func (h *TokenHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateTokenRequest
	decodeBody(r, &req)

	req.ID = strings.TrimSpace(req.ID)
	if len(req.ID) != tokenIDLength || !req.Extend {
		respondWithError(w, http.StatusBadRequest, "missing required fields or fields are invalid")
		return
	}

	var token model.Token
	err := h.store.Read(r.Context(), store.CollectionTokens, req.ID, &token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidKey) {
			respondWithError(w, http.StatusBadRequest, "the specified token does not exist")
			return
		}
		log.Error().Err(err).Msg("could not read token for extension")
		respondWithError(w, http.StatusInternalServerError, "could not extend the token")
		return
	}

	if !token.Valid(time.Now()) {
		respondWithError(w, http.StatusBadRequest, "the token has already expired and cannot be extended")
		return
	}

	token.Expires = time.Now().Add(tokenTTL)
	if err := h.store.Update(r.Context(), store.CollectionTokens, req.ID, token); err != nil {
		log.Error().Err(err).Msg("could not update token")
		respondWithError(w, http.StatusInternalServerError, "could not extend the token")
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

// HandleDelete handles DELETE /tokens?id=... (revocation).
func (h *TokenHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if len(id) != tokenIDLength {
		respondWithError(w, http.StatusBadRequest, "invalid field: id")
		return
	}

	err := h.store.Delete(r.Context(), store.CollectionTokens, id)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, nil)
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrInvalidKey):
		respondWithError(w, http.StatusBadRequest, "could not find the specified token")
	default:
		log.Error().Err(err).Msg("could not delete token")
		respondWithError(w, http.StatusInternalServerError, "could not delete the token")
	}
}
