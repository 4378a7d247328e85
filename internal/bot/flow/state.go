// Package flow реализует диалоговый конечный автомат бота: закрытый набор состояний,
// их сериализация и контроллер, который прогоняет один ход диалога.
package flow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Spok95/group-duty-bot/internal/models"
)

// Kind: стабильное имя состояния, под ним оно сохраняется.
type Kind string

// State: вершина диалога. Обработчик возвращает следующее состояние
// или nil, если текущее остаётся. Ошибка всегда означает сбой хранилища.
type State interface {
	Kind() Kind
	OnEnter(ctx context.Context, t *Turn) (State, error)
	OnMessage(ctx context.Context, t *Turn, m Message) (State, error)
	OnCallback(ctx context.Context, t *Turn, token string) (State, error)
	sealed()
}

// Guarded: состояние, доступное только при наличии права.
// Проверку делает контроллер до вызова любого обработчика.
type Guarded interface {
	Requires() models.Permission
}

// Message: входящее сообщение, текст и/или фото.
type Message struct {
	Text  string
	Photo []byte
}

var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrChainTooLong     = errors.New("auto-advance chain too long")
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// passive: состояние не реагирует на ввод, пока не переопределит обработчик.
type passive struct{}

func (passive) OnMessage(context.Context, *Turn, Message) (State, error) { return nil, nil }
func (passive) OnCallback(context.Context, *Turn, string) (State, error) { return nil, nil }
func (passive) sealed()                                                  {}

// admin: встраивается в состояния админ-панели.
type admin struct{}

func (admin) Requires() models.Permission { return models.PermAdmin }

// member: встраивается в состояния, доступные любому пользователю с ролью.
type member struct{}

func (member) Requires() models.Permission { return models.PermUseBot }

const (
	tokBack    = "Back"
	tokYes     = "Yes"
	tokNo      = "No"
	tokConfirm = "Confirm"
	tokToday   = "Today"
	tokAdd     = "Add"
	tokStatus  = "Status"
	tokRename  = "Rename"
)

var (
	backRow = []Button{{Label: "Назад", Token: tokBack}}
	homeRow = []Button{{Label: "Головна", Token: tokBack}}
)

const dateHint = "Формат дати: ДД.ММ.РРРР"

// idToken / parseID: токены кнопок списков несут id сущности.
func idToken(id int64) string { return strconv.FormatInt(id, 10) }

func parseID(token string) (int64, bool) {
	id, err := strconv.ParseInt(token, 10, 64)
	return id, err == nil && id > 0
}

// isCancelText: текстовая отмена на шагах со свободным вводом.
func isCancelText(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	return s == "скасувати" || s == "/cancel" || s == "cancel"
}

// glyph: индикатор включено/выключено на кнопках.
func glyph(on bool) string {
	if on {
		return "🟢"
	}
	return "🔴"
}
