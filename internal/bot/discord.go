package bot

import (
	"context"
	"fmt"

	"github.com/disgoorg/disgo"
	disgobot "github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
)

// Dispatcher получает сообщения из Discord
type Dispatcher interface {
	Handle(ctx context.Context, msg Message)
}

// VoiceStateWatcher получает изменения голосового состояния самого бота
type VoiceStateWatcher interface {
	// VoiceStateChanged вызывается с nil, если бот больше не в голосовом канале
	VoiceStateChanged(group string, channelID *snowflake.ID)
}

// NewDiscordClient создает клиент Discord, передающий новые сообщения в dispatcher,
// а изменения голосового состояния бота в voiceStates.
// Получатели вызываются только после OpenGateway, поэтому их можно
// дозаполнить после создания клиента. События обрабатываются асинхронно:
// голосовые команды ждут событий шлюза и не должны блокировать его чтение.
func NewDiscordClient(ctx context.Context, token string, dispatcher *DispatcherRef, voiceStates *VoiceStateRef) (*disgobot.Client, error) {
	client, err := disgo.New(token,
		disgobot.WithEventManagerConfigOpts(disgobot.WithAsyncEventsEnabled()),
		disgobot.WithGatewayConfigOpts(gateway.WithIntents(
			gateway.IntentGuilds,
			gateway.IntentGuildMessages,
			gateway.IntentMessageContent,
			gateway.IntentGuildVoiceStates,
		)),
		disgobot.WithCacheConfigOpts(cache.WithCaches(cache.FlagGuilds, cache.FlagVoiceStates)),
		disgobot.WithEventListenerFunc(func(e *events.Ready) {
			log.Infow("подключение к Discord установлено", "user", e.User.Username)
		}),
		disgobot.WithEventListenerFunc(func(e *events.MessageCreate) {
			client := e.Client()
			msg := MessageFromDiscord(e.Message, e.GuildID, func(guildID, userID snowflake.ID) (snowflake.ID, bool) {
				vs, ok := client.Caches.VoiceState(guildID, userID)
				if !ok || vs.ChannelID == nil {
					return 0, false
				}
				return *vs.ChannelID, true
			})
			dispatchAsync(ctx, dispatcher, msg)
		}),
		disgobot.WithEventListenerFunc(func(e *events.GuildVoiceStateUpdate) {
			if e.VoiceState.UserID != e.Client().ID() {
				return
			}
			voiceStates.VoiceStateChanged(e.VoiceState.GuildID.String(), e.VoiceState.ChannelID)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания клиента Discord: %w", err)
	}
	return client, nil
}

// DispatcherRef позволяет назначить обработчик сообщений после создания клиента
type DispatcherRef struct {
	Dispatcher
}

// Handle передает сообщение назначенному обработчику
func (r *DispatcherRef) Handle(ctx context.Context, msg Message) {
	if r.Dispatcher == nil {
		return
	}
	r.Dispatcher.Handle(ctx, msg)
}

// dispatchAsync выполняет команду в отдельной горутине. Канал закрывается
// после обработки сообщения.
func dispatchAsync(ctx context.Context, d Dispatcher, msg Message) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Handle(ctx, msg)
	}()
	return done
}

// VoiceStateRef позволяет назначить получателя голосовых событий после создания клиента
type VoiceStateRef struct {
	VoiceStateWatcher
}

// VoiceStateChanged передает событие назначенному получателю
func (r *VoiceStateRef) VoiceStateChanged(group string, channelID *snowflake.ID) {
	if r.VoiceStateWatcher == nil {
		return
	}
	r.VoiceStateWatcher.VoiceStateChanged(group, channelID)
}

// MessageFromDiscord преобразует сообщение Discord. voiceChannel ищет
// голосовой канал автора на сервере.
func MessageFromDiscord(m discord.Message, guildID *snowflake.ID, voiceChannel func(guildID, userID snowflake.ID) (snowflake.ID, bool)) Message {
	msg := Message{
		Channel: m.ChannelID.String(),
		Content: m.Content,
		FromBot: m.Author.Bot,
	}
	if guildID == nil {
		return msg
	}
	msg.Group = guildID.String()
	if voiceChannel != nil {
		if id, ok := voiceChannel(*guildID, m.Author.ID); ok {
			msg.VoiceChannel = id.String()
		}
	}
	return msg
}

// DiscordReplier отправляет ответы через REST API Discord
type DiscordReplier struct {
	Rest rest.Rest
}

// Reply отправляет текст в канал
func (r DiscordReplier) Reply(ctx context.Context, channel, content string) error {
	channelID, err := snowflake.Parse(channel)
	if err != nil {
		return fmt.Errorf("некорректный идентификатор канала %q: %w", channel, err)
	}
	_, err = r.Rest.CreateMessage(channelID, discord.MessageCreate{Content: content}, rest.WithCtx(ctx))
	return err
}
