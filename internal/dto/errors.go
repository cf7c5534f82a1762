package dto

// BaseError универсальный корневой формат ошибки
// Code: машинно-ориентированный код (snake_case)
// Message: краткое человеко-читаемое описание
// Details: дополнительная строка (пояснение)
// Fields: для валидационных ошибок (имя поля + текст)
type BaseError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details string       `json:"details,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// FieldError отдельная ошибка по конкретному полю
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Tag     string `json:"tag,omitempty"`
}

// ValidationErrorResponse 400
// Пример: количество <= 0, неизвестный товар, неверный способ оплаты
type ValidationErrorResponse BaseError

// UnauthorizedErrorResponse 401
type UnauthorizedErrorResponse BaseError

// ForbiddenErrorResponse 403
// Пример: покупатель обращается к чужой корзине
type ForbiddenErrorResponse BaseError

// NotFoundErrorResponse 404
type NotFoundErrorResponse BaseError

// ConflictErrorResponse 409
// Пример: доставка заказа в состоянии PENDING, повторная регистрация email
type ConflictErrorResponse BaseError

// InternalErrorResponse 500
type InternalErrorResponse BaseError

func NewValidationError(msg string, fields []FieldError) ValidationErrorResponse {
	return ValidationErrorResponse(BaseError{Code: "validation_error", Message: msg, Fields: fields})
}
func NewUnauthorizedError(msg string) UnauthorizedErrorResponse {
	return UnauthorizedErrorResponse(BaseError{Code: "unauthorized", Message: msg})
}
func NewForbiddenError(msg string) ForbiddenErrorResponse {
	return ForbiddenErrorResponse(BaseError{Code: "forbidden", Message: msg})
}
func NewNotFoundError(msg string) NotFoundErrorResponse {
	return NotFoundErrorResponse(BaseError{Code: "not_found", Message: msg})
}

// NewConflictError: code различает нарушение состояния (illegal_state) и дубликат (conflict).
func NewConflictError(code, msg string) ConflictErrorResponse {
	return ConflictErrorResponse(BaseError{Code: code, Message: msg})
}
func NewInternalError(details string) InternalErrorResponse {
	return InternalErrorResponse(BaseError{Code: "internal_error", Message: "internal server error", Details: details})
}
