package handlers

import (
	"net/http"

	"github.com/bookline/bookline-api/internal/domain"
	"github.com/bookline/bookline-api/internal/http/response"
)

// Register creates a new customer account.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	user, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, user)
}

// Token is the credentials grant: username (or email) + password in, signed
// token + profile out.
func (h *Handlers) Token(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	login, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, login)
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	actor := getActor(r)
	response.JSON(w, http.StatusOK, actor.User)
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid user id")
		return
	}

	user, err := h.userService.GetProfile(r.Context(), getActor(r), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, user)
}

func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid user id")
		return
	}
	var patch domain.UserPatch
	if !decode(r, &patch) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), getActor(r), id, patch)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, user)
}

func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req domain.PasswordChangeRequest
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if err := h.userService.ChangePassword(r.Context(), getActor(r), &req); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}

func (h *Handlers) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		response.BadRequest(w, "invalid user id")
		return
	}

	if err := h.userService.DeactivateAccount(r.Context(), getActor(r), id); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, skip := parsePagination(r)
	users, err := h.userService.ListUsers(r.Context(), getActor(r), limit, skip)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, users)
}

func (h *Handlers) CreateUserAddress(w http.ResponseWriter, r *http.Request) {
	var req domain.AddressCreateRequest
	if !decode(r, &req) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	addr, err := h.userService.CreateAddress(r.Context(), getActor(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, addr)
}

func (h *Handlers) ListUserAddresses(w http.ResponseWriter, r *http.Request) {
	addresses, err := h.userService.ListAddresses(r.Context(), getActor(r))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, addresses)
}

func (h *Handlers) UpdateUserAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "addressID")
	if !ok {
		response.BadRequest(w, "invalid address id")
		return
	}
	var patch domain.AddressPatch
	if !decode(r, &patch) {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	addr, err := h.userService.UpdateAddress(r.Context(), getActor(r), id, patch)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, addr)
}

func (h *Handlers) DeleteUserAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "addressID")
	if !ok {
		response.BadRequest(w, "invalid address id")
		return
	}

	if err := h.userService.DeleteAddress(r.Context(), getActor(r), id); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}
