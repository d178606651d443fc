package errors

import (
	"fmt"
)

type ErrTopicAlreadyExists struct {
	Source string
}

func (e *ErrTopicAlreadyExists) Error() string {
	return "источник уже отслеживается: " + e.Source
}

func (e *ErrTopicAlreadyExists) Is(target error) bool {
	_, ok := target.(*ErrTopicAlreadyExists)
	return ok
}

type ErrTopicNotFound struct {
	TopicID int64
}

func (e *ErrTopicNotFound) Error() string {
	return fmt.Sprintf("топик не найден: %d", e.TopicID)
}

func (e *ErrTopicNotFound) Is(target error) bool {
	_, ok := target.(*ErrTopicNotFound)
	return ok
}

type ErrUserNotFound struct {
	UserID int64
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("пользователь не найден: %d", e.UserID)
}

func (e *ErrUserNotFound) Is(target error) bool {
	_, ok := target.(*ErrUserNotFound)
	return ok
}

type ErrSourceUnavailable struct {
	Platform string
	Source   string
}

func (e *ErrSourceUnavailable) Error() string {
	return fmt.Sprintf("источник %s недоступен: %s", e.Platform, e.Source)
}

func (e *ErrSourceUnavailable) Is(target error) bool {
	_, ok := target.(*ErrSourceUnavailable)
	return ok
}

type ErrChannelNotJoinable struct {
	ChannelName string
}

func (e *ErrChannelNotJoinable) Error() string {
	return "канал недоступен или закрыт для вступления: " + e.ChannelName
}

func (e *ErrChannelNotJoinable) Is(target error) bool {
	_, ok := target.(*ErrChannelNotJoinable)
	return ok
}

type ErrMissingRequiredField struct {
	FieldName string
}

func (e *ErrMissingRequiredField) Error() string {
	return fmt.Sprintf("отсутствует обязательное поле: %s", e.FieldName)
}

func (e *ErrMissingRequiredField) Is(target error) bool {
	_, ok := target.(*ErrMissingRequiredField)
	return ok
}

type ErrInvalidInitData struct {
	Reason string
}

func (e *ErrInvalidInitData) Error() string {
	return "некорректные данные инициализации: " + e.Reason
}

func (e *ErrInvalidInitData) Is(target error) bool {
	_, ok := target.(*ErrInvalidInitData)
	return ok
}

type ErrInvalidValue struct {
	FieldName string
	Value     string
}

func (e *ErrInvalidValue) Error() string {
	return fmt.Sprintf("некорректное значение '%s' для поля '%s'", e.Value, e.FieldName)
}

func (e *ErrInvalidValue) Is(target error) bool {
	_, ok := target.(*ErrInvalidValue)
	return ok
}

type ErrRefreshInProgress struct {
	TopicID int64
}

func (e *ErrRefreshInProgress) Error() string {
	return fmt.Sprintf("топик %d уже обновляется", e.TopicID)
}

func (e *ErrRefreshInProgress) Is(target error) bool {
	_, ok := target.(*ErrRefreshInProgress)
	return ok
}

type ErrUnknownDBAccessType struct {
	AccessType string
}

func (e *ErrUnknownDBAccessType) Error() string {
	return fmt.Sprintf("неизвестный тип доступа к базе данных: %s", e.AccessType)
}

type ErrBuildSQLQuery struct {
	Operation string
	Cause     error
}

func (e *ErrBuildSQLQuery) Error() string {
	return fmt.Sprintf("ошибка при построении SQL запроса для %s: %v", e.Operation, e.Cause)
}

func (e *ErrBuildSQLQuery) Unwrap() error {
	return e.Cause
}

type ErrSQLExecution struct {
	Operation string
	Cause     error
}

func (e *ErrSQLExecution) Error() string {
	return fmt.Sprintf("ошибка при выполнении SQL запроса для %s: %v", e.Operation, e.Cause)
}

func (e *ErrSQLExecution) Unwrap() error {
	return e.Cause
}

type ErrSQLScan struct {
	Entity string
	Cause  error
}

func (e *ErrSQLScan) Error() string {
	return fmt.Sprintf("ошибка при сканировании %s: %v", e.Entity, e.Cause)
}

func (e *ErrSQLScan) Unwrap() error {
	return e.Cause
}

type ErrUnknownNotifierType struct {
	Transport string
}

func (e *ErrUnknownNotifierType) Error() string {
	return "неизвестный тип нотификатора: " + e.Transport
}

type ErrUnknownCommand struct {
	Command string
}

func (e *ErrUnknownCommand) Error() string {
	return "неизвестная команда: " + e.Command
}

func (e *ErrUnknownCommand) Is(target error) bool {
	_, ok := target.(*ErrUnknownCommand)
	return ok
}

type ErrInvalidUpdate struct {
	Reason string
}

func (e *ErrInvalidUpdate) Error() string {
	return "некорректное обновление: " + e.Reason
}

func (e *ErrInvalidUpdate) Is(target error) bool {
	_, ok := target.(*ErrInvalidUpdate)
	return ok
}

type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error: %d", e.StatusCode)
}
