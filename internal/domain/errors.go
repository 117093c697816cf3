package domain

import "errors"

// Ошибки подсистемы статистики + бизнес-ошибки HTTP-слоя
var (
	// атомарный инкремент/декремент не прошёл — отдаётся вызывающему
	ErrFieldUpdate = errors.New("field_update_failed")
	// лок на первичное наполнение не взят — не фатально, повтор при следующем вызове
	ErrLockNotAcquired = errors.New("lock_not_acquired")
	// запись в кеше не совпала по identity/форме — считаем промахом
	ErrCacheCorrupted = errors.New("cache_corrupted")
	// пакетный flush в БД не прошёл целиком
	ErrSyncApply = errors.New("sync_apply_failed")

	ErrBadParams        = errors.New("bad_params")         // 400
	ErrNotFound         = errors.New("not_found")          // 404
	ErrMethodNotAllowed = errors.New("method_not_allowed") // 405
	ErrUnexpected       = errors.New("unexpected")         // 500
)

// Коды для конверта ответа
const (
	ErrCodeBadParams        = 400
	ErrCodeNotFound         = 404
	ErrCodeMethodNotAllowed = 405
	ErrCodeUnexpected       = 500
)
