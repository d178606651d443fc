package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/degen-feed/degen-feed/internal/domain/errors"
	"github.com/degen-feed/degen-feed/internal/domain/models"
)

// Validator разбирает и проверяет строку initData, которую Telegram-клиент
// передаёт Mini App. Подпись проверяется по схеме WebAppData
// (HMAC-SHA256 от data-check-string с ключом, производным от токена бота).
type Validator struct {
	botToken string
	verify   bool
	maxAge   time.Duration
}

func NewValidator(botToken string, verify bool, maxAge time.Duration) *Validator {
	return &Validator{
		botToken: botToken,
		verify:   verify,
		maxAge:   maxAge,
	}
}

type initDataUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Validate проверяет initData и возвращает личность пользователя.
// Любая ошибка (отсутствующее поле, битый JSON, неверная подпись,
// устаревший auth_date) возвращается как ErrInvalidInitData, единый
// терминальный исход для вызывающей стороны.
func (v *Validator) Validate(rawInitData string, now time.Time) (*models.InitData, error) {
	values, err := url.ParseQuery(rawInitData)
	if err != nil {
		return nil, &errors.ErrInvalidInitData{Reason: "не удалось разобрать строку initData"}
	}

	userJSON := values.Get("user")
	authDateRaw := values.Get("auth_date")
	hash := values.Get("hash")

	if userJSON == "" || authDateRaw == "" || hash == "" {
		return nil, &errors.ErrInvalidInitData{Reason: "отсутствует user, auth_date или hash"}
	}

	authDateUnix, err := strconv.ParseInt(authDateRaw, 10, 64)
	if err != nil {
		return nil, &errors.ErrInvalidInitData{Reason: "некорректный auth_date"}
	}

	authDate := time.Unix(authDateUnix, 0)

	if v.maxAge > 0 && now.Sub(authDate) > v.maxAge {
		return nil, &errors.ErrInvalidInitData{Reason: "auth_date устарел"}
	}

	if v.verify {
		if !v.checkSignature(values, hash) {
			return nil, &errors.ErrInvalidInitData{Reason: "подпись не прошла проверку"}
		}
	}

	var user initDataUser
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return nil, &errors.ErrInvalidInitData{Reason: "не удалось разобрать данные пользователя"}
	}

	if user.ID == 0 {
		return nil, &errors.ErrInvalidInitData{Reason: "отсутствует id пользователя"}
	}

	return &models.InitData{
		User: &models.User{
			ID:        user.ID,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Username:  user.Username,
		},
		AuthDate: authDate,
		Hash:     hash,
	}, nil
}

// checkSignature сверяет hash с HMAC от data-check-string:
// все пары key=value кроме hash, отсортированные по ключу, через "\n".
func (v *Validator) checkSignature(values url.Values, hash string) bool {
	keys := make([]string, 0, len(values))

	for key := range values {
		if key == "hash" {
			continue
		}

		keys = append(keys, key)
	}

	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+values.Get(key))
	}

	dataCheckString := strings.Join(pairs, "\n")

	secretMac := hmac.New(sha256.New, []byte("WebAppData"))
	secretMac.Write([]byte(v.botToken))
	secretKey := secretMac.Sum(nil)

	mac := hmac.New(sha256.New, secretKey)
	mac.Write([]byte(dataCheckString))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(hash))
}

// Sign вычисляет подпись для набора полей initData. Используется в тестах
// и может пригодиться при генерации тестовых ссылок.
func Sign(values url.Values, botToken string) string {
	keys := make([]string, 0, len(values))

	for key := range values {
		if key == "hash" {
			continue
		}

		keys = append(keys, key)
	}

	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+values.Get(key))
	}

	secretMac := hmac.New(sha256.New, []byte("WebAppData"))
	secretMac.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secretMac.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))

	return hex.EncodeToString(mac.Sum(nil))
}
