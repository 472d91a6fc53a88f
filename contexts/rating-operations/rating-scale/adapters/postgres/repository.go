package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"meridian/contexts/rating-operations/rating-scale/domain/entities"
	domainerrors "meridian/contexts/rating-operations/rating-scale/domain/errors"
	"meridian/contexts/rating-operations/rating-scale/ports"

	"gorm.io/gorm"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) GetMappingByFinalRating(ctx context.Context, finalRating string) (entities.SymbolMapping, bool, error) {
	var row symbolMappingModel
	err := r.db.WithContext(ctx).
		Where("final_rating = ?", strings.TrimSpace(finalRating)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.SymbolMapping{}, false, nil
		}
		return entities.SymbolMapping{}, false, r.logError("rating_scale_repo_get_mapping_failed", err,
			"final_rating", strings.TrimSpace(finalRating),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) GetSymbol(ctx context.Context, symbol string) (entities.RatingSymbol, error) {
	var row ratingSymbolModel
	err := r.db.WithContext(ctx).
		Where("rating_symbol = ?", strings.TrimSpace(symbol)).
		Where("is_active = ?", true).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.RatingSymbol{}, domainerrors.ErrSymbolNotFound
		}
		return entities.RatingSymbol{}, r.logError("rating_scale_repo_get_symbol_failed", err,
			"symbol", strings.TrimSpace(symbol),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListSymbolsByScale(ctx context.Context, scaleID string) ([]entities.RatingSymbol, error) {
	tx := r.db.WithContext(ctx).Model(&ratingSymbolModel{}).
		Where("is_active = ?", true)
	if strings.TrimSpace(scaleID) != "" {
		tx = tx.Where("rating_scale_id = ?", strings.TrimSpace(scaleID))
	}
	var rows []ratingSymbolModel
	if err := tx.Order("weightage DESC").Find(&rows).Error; err != nil {
		return nil, r.logError("rating_scale_repo_list_symbols_failed", err,
			"scale_id", strings.TrimSpace(scaleID),
		)
	}
	items := make([]entities.RatingSymbol, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "rating-operations/rating-scale",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("rating scale repository operation failed", fields...)
	return err
}

type ratingSymbolModel struct {
	ID            string  `gorm:"column:id;primaryKey"`
	RatingSymbol  string  `gorm:"column:rating_symbol"`
	Weightage     float64 `gorm:"column:weightage"`
	RatingScaleID string  `gorm:"column:rating_scale_id"`
	IsActive      bool    `gorm:"column:is_active"`
}

func (ratingSymbolModel) TableName() string {
	return "rating_symbol_masters"
}

func (m ratingSymbolModel) toEntity() entities.RatingSymbol {
	return entities.RatingSymbol{
		SymbolID:  m.ID,
		Symbol:    m.RatingSymbol,
		Weightage: m.Weightage,
		ScaleID:   m.RatingScaleID,
		Active:    m.IsActive,
	}
}

type symbolMappingModel struct {
	ID          string `gorm:"column:id;primaryKey"`
	Prefix      string `gorm:"column:prefix"`
	Suffix      string `gorm:"column:suffix"`
	FinalRating string `gorm:"column:final_rating"`
}

func (symbolMappingModel) TableName() string {
	return "rating_symbol_mappings"
}

func (m symbolMappingModel) toEntity() entities.SymbolMapping {
	return entities.SymbolMapping{
		MappingID:   m.ID,
		Prefix:      m.Prefix,
		Suffix:      m.Suffix,
		FinalRating: m.FinalRating,
	}
}

var _ ports.SymbolRepository = (*Repository)(nil)
