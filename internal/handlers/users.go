package handlers

import (
	"net/http"

	"github.com/filmorate/backend/internal/logging"
)

// UserHandler exposes user and friendship endpoints.
type UserHandler struct {
	Users UserService
}

// List handles GET /api/v1/users.
func (h UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.ListUsers(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, newUserDTOs(users))
}

// Get handles GET /api/v1/users/{id}.
func (h UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := h.Users.GetUser(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newUserDTO(user))
}

// Create handles POST /api/v1/users.
func (h UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req userDTO
	if err := decodeJSON(r, &req); err != nil {
		logging.FromContext(ctx).Warn("invalid user payload", "error", err)
		respondError(ctx, w, err)
		return
	}

	user, err := h.Users.AddUser(ctx, req.model())
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, newUserDTO(user))
}

// Update handles PUT /api/v1/users.
func (h UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req userDTO
	if err := decodeJSON(r, &req); err != nil {
		logging.FromContext(ctx).Warn("invalid user payload", "error", err)
		respondError(ctx, w, err)
		return
	}

	user, err := h.Users.UpdateUser(ctx, req.model())
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newUserDTO(user))
}

// Delete handles DELETE /api/v1/users/{id}.
func (h UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := h.Users.RemoveUser(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newUserDTO(user))
}

// Friends handles GET /api/v1/users/{id}/friends.
func (h UserHandler) Friends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	friends, err := h.Users.ListFriends(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newUserDTOs(friends))
}

// Friend handles GET /api/v1/users/{id}/friends/{friendId}.
func (h UserHandler) Friend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, friendID, err := pathIDs(r, "id", "friendId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	friend, err := h.Users.GetFriend(ctx, id, friendID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newUserDTO(friend))
}

// AddFriend handles PUT /api/v1/users/{id}/friends/{friendId}.
func (h UserHandler) AddFriend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, friendID, err := pathIDs(r, "id", "friendId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	friend, err := h.Users.AddFriend(ctx, id, friendID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newUserDTO(friend))
}

// RemoveFriend handles DELETE /api/v1/users/{id}/friends/{friendId}.
func (h UserHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, friendID, err := pathIDs(r, "id", "friendId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	friend, err := h.Users.RemoveFriend(ctx, id, friendID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newUserDTO(friend))
}

// CommonFriends handles GET /api/v1/users/{id}/friends/common/{otherId}.
func (h UserHandler) CommonFriends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, otherID, err := pathIDs(r, "id", "otherId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	common, err := h.Users.ListCommonFriends(ctx, id, otherID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newUserDTOs(common))
}
