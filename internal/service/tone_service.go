package service

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pryve/pryve-admin/internal/apiclient"
	"github.com/pryve/pryve-admin/internal/domain"
	"github.com/pryve/pryve-admin/pkg/logger"
	"github.com/pryve/pryve-admin/pkg/validator"
)

// ToneService управляет профилями тона ответов AI
type ToneService struct {
	client    *apiclient.Client
	validator *validator.CustomValidator
	logger    logger.Logger
}

// NewToneService создает новый экземпляр ToneService
func NewToneService(client *apiclient.Client, v *validator.CustomValidator, log logger.Logger) *ToneService {
	return &ToneService{
		client:    client,
		validator: v,
		logger:    log,
	}
}

// List возвращает все профили тона
func (s *ToneService) List(ctx context.Context) apiclient.Response[[]domain.ToneProfile] {
	return apiclient.Call[[]domain.ToneProfile](ctx, s.client, apiclient.Request{
		Method: http.MethodGet,
		Path:   pathTones,
	})
}

// Create создает профиль тона
func (s *ToneService) Create(ctx context.Context, req domain.ToneProfileRequest) apiclient.Response[domain.ToneProfile] {
	if err := s.validator.Validate(req); err != nil {
		return validationFailure[domain.ToneProfile](err)
	}

	resp := apiclient.Call[domain.ToneProfile](ctx, s.client, apiclient.Request{
		Method: http.MethodPost,
		Path:   pathTones,
		Body:   req,
	})
	if resp.Success {
		s.logger.Info("Tone profile created", logger.Fields{"tone_id": resp.Data.ID, "name": req.Name})
	}
	return resp
}

// Update обновляет профиль тона
func (s *ToneService) Update(ctx context.Context, id string, req domain.ToneProfileRequest) apiclient.Response[domain.ToneProfile] {
	if err := s.validator.Validate(req); err != nil {
		return validationFailure[domain.ToneProfile](err)
	}
	return apiclient.Call[domain.ToneProfile](ctx, s.client, apiclient.Request{
		Method: http.MethodPatch,
		Path:   itemPath(pathTones, id),
		Body:   req,
	})
}

// Delete удаляет профиль тона
func (s *ToneService) Delete(ctx context.Context, id string) apiclient.Response[json.RawMessage] {
	resp := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodDelete,
		Path:   itemPath(pathTones, id),
	})
	if resp.Success {
		s.logger.Info("Tone profile deleted", logger.Fields{"tone_id": id})
	}
	return resp
}
