package service

import (
	"Shortlytics-Backend/internal/config"
	"Shortlytics-Backend/internal/domain"
	"Shortlytics-Backend/internal/repository"
	"Shortlytics-Backend/pkg/random"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxRetries = 5

// ShortPathPrefix is the route under which aliases are resolved
const ShortPathPrefix = "/api/shorten/"

// CreateInput описывает запрос на создание короткой ссылки
type CreateInput struct {
	FullURL     string `json:"fullUrl" validate:"required"`
	CustomAlias string `json:"customAlias" validate:"omitempty,max=64,alias"`
	Topic       string `json:"topic" validate:"omitempty,max=128"`
	OwnerID     *int64 `json:"-"`
	CreatorIP   string `json:"-"`
}

type Registrar struct {
	storage  repository.Storage
	config   *config.URLShortener
	validate *validator.Validate
	log      *zap.Logger
}

func NewRegistrar(storage repository.Storage, cfg *config.URLShortener, log *zap.Logger) *Registrar {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Регистрация не может упасть: имя тега непустое, функция задана
	_ = v.RegisterValidation("alias", validAlias)

	return &Registrar{
		storage:  storage,
		config:   cfg,
		validate: v,
		log:      log.With(zap.String("component", "registrar")),
	}
}

// Create проверяет вход, подбирает алиас и сохраняет запись с нулевой аналитикой
func (r *Registrar) Create(ctx context.Context, in CreateInput) (*domain.URLRecord, error) {
	in.FullURL = strings.TrimSpace(in.FullURL)
	in.CustomAlias = strings.TrimSpace(in.CustomAlias)
	in.Topic = strings.TrimSpace(in.Topic)

	if err := r.validate.Struct(in); err != nil {
		return nil, toValidationError(err)
	}

	alias := in.CustomAlias
	if alias == "" {
		var err error
		alias, err = r.generateAlias(ctx)
		if err != nil {
			return nil, err
		}
	}

	shortURL := r.ShortURL(alias)

	exists, err := r.storage.ShortURLExists(ctx, shortURL)
	if err != nil {
		return nil, fmt.Errorf("failed to check short url existence: %w", err)
	}
	if exists {
		return nil, ErrConflict
	}

	record := &domain.URLRecord{
		FullURL:   in.FullURL,
		Alias:     alias,
		ShortURL:  shortURL,
		OwnerID:   in.OwnerID,
		CreatorIP: in.CreatorIP,
	}
	if in.Topic != "" {
		topic := in.Topic
		record.Topic = &topic
	}

	if err := r.storage.CreateURLRecord(ctx, record); err != nil {
		// Гонка: запись с тем же алиасом появилась после проверки
		if errors.Is(err, repository.ErrAliasExists) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to save url record: %w", err)
	}

	r.log.Info("short url created",
		zap.String("alias", alias),
		zap.Bool("custom_alias", in.CustomAlias != ""),
		zap.String("creator_ip", in.CreatorIP),
	)

	return record, nil
}

// ShortURL returns the public short URL of an alias
func (r *Registrar) ShortURL(alias string) string {
	return strings.TrimRight(r.config.BaseURL, "/") + ShortPathPrefix + alias
}

func (r *Registrar) generateAlias(ctx context.Context) (string, error) {
	for i := 0; i < maxRetries; i++ {
		alias, err := random.NewRandomString(r.config.AliasLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate alias: %w", err)
		}
		exists, err := r.storage.AliasExists(ctx, alias)
		if err != nil {
			return "", fmt.Errorf("failed to check alias existence: %w", err)
		}
		if !exists {
			return alias, nil
		}
		r.log.Debug("generated alias collision", zap.String("alias", alias), zap.Int("attempt", i+1))
	}
	return "", fmt.Errorf("failed to generate unique alias after %d attempts", maxRetries)
}

// validAlias запрещает символы, ломающие путь короткой ссылки
func validAlias(fl validator.FieldLevel) bool {
	alias := fl.Field().String()
	if strings.ContainsAny(alias, "/?#%") {
		return false
	}
	return !strings.ContainsFunc(alias, unicode.IsSpace)
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	fe := verrs[0]
	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required", fe.Field())
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "alias":
		msg = fmt.Sprintf("%s must not contain whitespace or any of / ? # %%", fe.Field())
	default:
		msg = fmt.Sprintf("%s is invalid", fe.Field())
	}
	return &ValidationError{Field: fe.Field(), Message: msg}
}
