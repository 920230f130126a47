package handler

import (
	"github.com/google/uuid"

	"github.com/mknows/bootcamp-api/internal/core/domain"
	"github.com/mknows/bootcamp-api/internal/core/ports"
)

// --- Domain → Response ---

func toProfileResponse(u *domain.User) profileResponse {
	resp := profileResponse{
		UUID:            u.UUID.String(),
		Email:           u.Email,
		FullName:        u.FullName,
		EmailVerifiedAt: u.EmailVerifiedAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
	if u.DisplayPicture != nil {
		pic := u.DisplayPicture.String()
		resp.DisplayPicture = &pic
	}
	return resp
}

func toSessionResponses(views []ports.SessionView) []sessionResponse {
	out := make([]sessionResponse, 0, len(views))
	for _, v := range views {
		out = append(out, sessionResponse{
			UUID:      v.Session.UUID.String(),
			UserAgent: v.Session.Fingerprint,
			IPAddress: v.Session.IPAddress,
			Status:    string(v.Session.Status),
			IsCurrent: v.IsCurrent,
			CreatedAt: v.Session.CreatedAt,
			UpdatedAt: v.Session.UpdatedAt,
		})
	}
	return out
}

func toUserListResponse(list *ports.UserList) userListResponse {
	data := make([]profileResponse, 0, len(list.Items))
	for _, u := range list.Items {
		data = append(data, toProfileResponse(u))
	}
	return userListResponse{
		Data:       data,
		Total:      list.Total,
		Page:       list.Page,
		Limit:      list.Limit,
		TotalPages: list.TotalPages,
	}
}

// --- Request → Domain ---

// toProfileUpdate expects a validated request.
func toProfileUpdate(req updateProfileRequest) domain.ProfileUpdate {
	upd := domain.ProfileUpdate{FullName: req.FullName}
	if req.DisplayPicture != nil {
		if id, err := uuid.Parse(*req.DisplayPicture); err == nil {
			upd.DisplayPicture = &id
		}
	}
	return upd
}
