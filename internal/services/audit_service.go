package services

import (
	"context"

	"sales-crm/internal/authz"
	"sales-crm/internal/entities"
	"sales-crm/internal/repositories"
	"sales-crm/pkg/types"
)

type AuditServiceInterface interface {
	List(ctx context.Context, criteria types.Criteria) ([]entities.AuditEntry, uint64, error)
}

type AuditService struct {
	*BaseService
	auditRepo repositories.AuditRepositoryInterface
}

func NewAuditService(base *BaseService, auditRepo repositories.AuditRepositoryInterface) *AuditService {
	return &AuditService{BaseService: base, auditRepo: auditRepo}
}

func (s *AuditService) List(ctx context.Context, criteria types.Criteria) ([]entities.AuditEntry, uint64, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, 0, err
	}
	if err := s.authorize(caller, authz.ActionRead, authz.Resource{Kind: authz.KindAudit}); err != nil {
		return nil, 0, err
	}
	return s.auditRepo.List(ctx, s.policy.Scope(caller, authz.KindAudit), criteria)
}
