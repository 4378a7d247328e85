package tg

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/group-duty-bot/internal/bot/flow"
)

// maxPhotoBytes: Bot API отдаёт файлы до 20 МБ.
const maxPhotoBytes = 20 << 20

// Channel: flow.Messenger поверх Bot API: inline-клавиатуры, правка сообщения
// с нажатой кнопкой, фото из памяти.
type Channel struct {
	bot  *tgbotapi.BotAPI
	http *http.Client
}

func NewChannel(bot *tgbotapi.BotAPI) *Channel {
	return &Channel{bot: bot, http: &http.Client{Timeout: 30 * time.Second}}
}

func keyboard(rows [][]flow.Button) *tgbotapi.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	kb := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			r = append(r, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Token))
		}
		kb = append(kb, r)
	}
	m := tgbotapi.NewInlineKeyboardMarkup(kb...)
	return &m
}

func (c *Channel) Show(_ context.Context, chatID int64, editMessageID int, s flow.Screen) (int, error) {
	kb := keyboard(s.Rows)
	if editMessageID != 0 {
		edit := tgbotapi.NewEditMessageText(chatID, editMessageID, s.Text)
		edit.ReplyMarkup = kb
		_, err := Send(c.bot, edit)
		if err == nil || isNotModified(err) {
			return editMessageID, nil
		}
		// сообщение могло устареть или быть удалено: отправляем новое
	}
	msg := tgbotapi.NewMessage(chatID, s.Text)
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	m, err := Send(c.bot, msg)
	if err != nil {
		return 0, err
	}
	return m.MessageID, nil
}

func (c *Channel) SendPhoto(_ context.Context, chatID int64, photo []byte, caption string, rows [][]flow.Button) error {
	p := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "duty.jpg", Bytes: photo})
	p.Caption = caption
	if kb := keyboard(rows); kb != nil {
		p.ReplyMarkup = *kb
	}
	_, err := Send(c.bot, p)
	return err
}

func (c *Channel) Notify(_ context.Context, chatID int64, text string) error {
	_, err := Send(c.bot, tgbotapi.NewMessage(chatID, text))
	return err
}

func (c *Channel) Ack(_ context.Context, callbackID string) error {
	_, err := Request(c.bot, tgbotapi.NewCallback(callbackID, ""))
	return err
}

// Download скачивает файл по file_id.
func (c *Channel) Download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := c.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("file url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
}

// Action превращает апдейт личного чата в действие и докачивает фото.
func (c *Channel) Action(ctx context.Context, u tgbotapi.Update) (flow.Action, bool, error) {
	a, fileID, ok := ActionOf(u)
	if !ok || fileID == "" {
		return a, ok, nil
	}
	b, err := c.Download(ctx, fileID)
	if err != nil {
		return a, false, err
	}
	a.Photo = b
	return a, true, nil
}

var _ flow.Messenger = (*Channel)(nil)
