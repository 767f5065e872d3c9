package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mzati-dev/eduspace-portal-backend/internal/dto"
	"github.com/mzati-dev/eduspace-portal-backend/internal/grading"
	"github.com/mzati-dev/eduspace-portal-backend/internal/models"
	appErrors "github.com/mzati-dev/eduspace-portal-backend/pkg/errors"
)

type gradeConfigRepo interface {
	List(ctx context.Context, schoolID string) ([]models.GradeConfig, error)
	FindByID(ctx context.Context, schoolID, id string) (*models.GradeConfig, error)
	FindActive(ctx context.Context, schoolID string) (*models.GradeConfig, error)
	Create(ctx context.Context, config *models.GradeConfig) error
	Update(ctx context.Context, config *models.GradeConfig) error
	SetActive(ctx context.Context, schoolID, id string) error
}

type reportCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// GradeConfigService manages scoring policies for a school.
type GradeConfigService struct {
	configs   gradeConfigRepo
	cache     reportCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeConfigService constructs GradeConfigService.
func NewGradeConfigService(configs gradeConfigRepo, cache reportCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *GradeConfigService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeConfigService{configs: configs, cache: cache, validator: validate, logger: logger}
}

// defaultGradeConfig is used when a school has never activated a policy.
// Returning it instead of an error keeps score entry working from day one.
func defaultGradeConfig(schoolID string) *models.GradeConfig {
	return &models.GradeConfig{
		ID:                "default",
		SchoolID:          schoolID,
		CalculationMethod: string(grading.MethodEndOfTermOnly),
		WeightQa1:         0,
		WeightQa2:         0,
		WeightEndOfTerm:   100,
		PassMark:          grading.DefaultPassMark,
		IsActive:          true,
	}
}

// List returns all stored configs for the school.
func (s *GradeConfigService) List(ctx context.Context, schoolID string) ([]models.GradeConfig, error) {
	configs, err := s.configs.List(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade configs")
	}
	return configs, nil
}

// Active returns the school's active config, falling back to the built-in
// default when none has been activated.
func (s *GradeConfigService) Active(ctx context.Context, schoolID string) (*models.GradeConfig, error) {
	config, err := s.configs.FindActive(ctx, schoolID)
	if err != nil {
		if err == sql.ErrNoRows {
			return defaultGradeConfig(schoolID), nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active grade config")
	}
	return config, nil
}

// ActivePolicy resolves the scoring policy the engine should apply.
func (s *GradeConfigService) ActivePolicy(ctx context.Context, schoolID string) (grading.Policy, error) {
	config, err := s.Active(ctx, schoolID)
	if err != nil {
		return grading.Policy{}, err
	}
	return config.Policy(), nil
}

// Create stores a new config. It starts inactive.
func (s *GradeConfigService) Create(ctx context.Context, schoolID string, req dto.CreateGradeConfigRequest) (*models.GradeConfig, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade config payload")
	}
	config := &models.GradeConfig{
		SchoolID:          schoolID,
		CalculationMethod: req.CalculationMethod,
		WeightQa1:         req.WeightQa1,
		WeightQa2:         req.WeightQa2,
		WeightEndOfTerm:   req.WeightEndOfTerm,
		PassMark:          req.PassMark,
		IsActive:          false,
	}
	if err := s.configs.Create(ctx, config); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade config")
	}
	return config, nil
}

// Update applies a partial update to a stored config.
func (s *GradeConfigService) Update(ctx context.Context, schoolID, id string, req dto.UpdateGradeConfigRequest) (*models.GradeConfig, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade config payload")
	}
	config, err := s.configs.FindByID(ctx, schoolID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade configuration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade config")
	}
	if req.CalculationMethod != nil {
		config.CalculationMethod = *req.CalculationMethod
	}
	if req.WeightQa1 != nil {
		config.WeightQa1 = *req.WeightQa1
	}
	if req.WeightQa2 != nil {
		config.WeightQa2 = *req.WeightQa2
	}
	if req.WeightEndOfTerm != nil {
		config.WeightEndOfTerm = *req.WeightEndOfTerm
	}
	if req.PassMark != nil {
		config.PassMark = *req.PassMark
	}
	if err := s.configs.Update(ctx, config); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade config")
	}
	if config.IsActive {
		s.invalidateViews(ctx, schoolID)
	}
	return config, nil
}

// SetActive activates one config, deactivating every other config of the
// school first. Cached report views are dropped so the next read reflects
// the new policy.
func (s *GradeConfigService) SetActive(ctx context.Context, schoolID, id string) (*models.GradeConfig, error) {
	if err := s.configs.SetActive(ctx, schoolID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade configuration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate grade config")
	}
	config, err := s.configs.FindByID(ctx, schoolID, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade config")
	}
	s.invalidateViews(ctx, schoolID)
	return config, nil
}

func (s *GradeConfigService) invalidateViews(ctx context.Context, schoolID string) {
	if s.cache == nil {
		return
	}
	pattern := "reports:" + schoolID + ":*"
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("failed to invalidate report cache", zap.String("school_id", schoolID), zap.Error(err))
	}
}
