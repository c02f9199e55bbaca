package service

import (
	"errors"
	"fmt"

	"taskManager/internal/models/task"
)

const (
	CodeNotFound   = "NOT_FOUND"
	CodeConflict   = "CONFLICT"
	CodeValidation = "VALIDATION_ERROR"
	CodeSaveFailed = "SAVE_FAILED"
	CodeLoadFailed = "LOAD_FAILED"
)

// сравниваются по коду: errors.Is(err, ErrNotFound)
var (
	ErrNotFound   = &BusinessError{Code: CodeNotFound, Message: "не найдено"}
	ErrConflict   = &BusinessError{Code: CodeConflict, Message: "пересечение по времени"}
	ErrValidation = &BusinessError{Code: CodeValidation, Message: "неверные данные"}
	ErrSaveFailed = &BusinessError{Code: CodeSaveFailed, Message: "не удалось сохранить"}
	ErrLoadFailed = &BusinessError{Code: CodeLoadFailed, Message: "не удалось загрузить"}
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func (b *BusinessError) Is(target error) bool {
	var t *BusinessError
	if !errors.As(target, &t) {
		return false
	}
	return b.Code == t.Code
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

func NewNotFound(kind task.Kind, id int) *BusinessError {
	return NewBusinessError(CodeNotFound, fmt.Sprintf("%s %d не найден(а)", kind, id),
		ToDetail("resource", kind),
		ToDetail("id", id),
	)
}

// NewConflict - интервал пересекается с уже запланированной задачей with
func NewConflict(id, with int) *BusinessError {
	return NewBusinessError(CodeConflict, fmt.Sprintf("задача %d пересекается по времени с задачей %d", id, with),
		ToDetail("id", id),
		ToDetail("with", with),
	)
}

func NewValidationError(field, reason string) *BusinessError {
	return NewBusinessError(CodeValidation, fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		ToDetail("field", field),
		ToDetail("reason", reason),
	)
}

func NewSaveFailed(err error) *BusinessError {
	busErr := NewBusinessError(CodeSaveFailed, "Не удалось сохранить изменения, состояние откачено")
	withCause(busErr, err)
	return busErr
}

func NewLoadFailed(reason string, err error) *BusinessError {
	busErr := NewBusinessError(CodeLoadFailed, fmt.Sprintf("Не удалось загрузить хранилище: %s", reason))
	withCause(busErr, err)
	return busErr
}

// withCause присоединяет причину. Бизнес-ошибка в цепочку не попадает, иначе
// errors.Is совпал бы и с её кодом: LOAD_FAILED из-за пересечения стал бы CONFLICT.
func withCause(busErr *BusinessError, err error) {
	if err == nil {
		return
	}
	var cause *BusinessError
	if errors.As(err, &cause) {
		busErr.Details["cause_code"] = cause.Code
		busErr.Details["cause"] = cause.Message
		return
	}
	busErr.Err = err
}
