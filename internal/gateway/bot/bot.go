package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattermost/mattermost-server/v6/model"
	"github.com/rs/zerolog"
)

const (
	maxRetries        = 5
	defaultRetryDelay = 3 * time.Second
)

var (
	ErrMaxRetries       = errors.New("could not connect mattermost websocket, max retries exceeded")
	errConnectionClosed = errors.New("mattermost websocket closed")
)

type Config struct {
	UserName string
	TeamName string
	Token    string
	Server   string
}

type DecisionBot struct {
	cfg        Config
	client     *model.Client4
	user       *model.User
	team       *model.Team
	commands   *Commands
	log        zerolog.Logger
	retryDelay time.Duration

	mu              sync.Mutex
	webSocketClient *model.WebSocketClient
}

func NewDecisionBot(cfg Config, commands *Commands, log zerolog.Logger) (*DecisionBot, error) {
	bot := &DecisionBot{
		cfg:        cfg,
		commands:   commands,
		log:        log,
		retryDelay: defaultRetryDelay,
	}
	bot.client = model.NewAPIv4Client(cfg.Server)
	bot.client.SetToken(cfg.Token)

	user, _, err := bot.client.GetMe("")
	if err != nil {
		return nil, fmt.Errorf("could not log in to mattermost: %w", err)
	}
	log.Info().Str("user", user.Username).Msg("logged in to mattermost")
	bot.user = user

	team, _, err := bot.client.GetTeamByName(cfg.TeamName, "")
	if err != nil {
		return nil, fmt.Errorf("could not find team %q: %w", cfg.TeamName, err)
	}
	log.Info().Str("team", team.Name).Msg("team found")
	bot.team = team

	return bot, nil
}

// Listen handles posted messages until ctx is done. A dropped connection is
// redialed; Listen gives up with ErrMaxRetries after maxRetries attempts in a
// row that neither connect nor deliver a single event.
func (b *DecisionBot) Listen(ctx context.Context) error {
	failures := 0
	for {
		delivered, err := b.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if delivered {
			failures = 0
		} else {
			failures++
		}
		if failures >= maxRetries {
			b.log.Error().Err(err).Int("attempts", failures).Msg("giving up on mattermost websocket")
			return ErrMaxRetries
		}
		b.log.Warn().Err(err).Int("failures", failures).Msg("mattermost websocket lost, retrying")

		select {
		case <-time.After(b.retryDelay):
		case <-ctx.Done():
			return nil
		}
	}
}

// session serves one websocket connection until it drops or ctx is done.
// It reports whether the connection delivered any event.
func (b *DecisionBot) session(ctx context.Context) (bool, error) {
	ws, err := model.NewWebSocketClient4(websocketURL(b.cfg.Server), b.client.AuthToken)
	if err != nil {
		return false, err
	}
	b.mu.Lock()
	b.webSocketClient = ws
	b.mu.Unlock()
	b.log.Info().Msg("mattermost websocket connected")

	ws.Listen()

	b.log.Info().Msg("decision bot listening now")
	delivered := false
	for {
		select {
		case event, ok := <-ws.EventChannel:
			if !ok {
				if ws.ListenError != nil {
					return delivered, ws.ListenError
				}
				return delivered, errConnectionClosed
			}
			delivered = true
			go b.handleWebSocketEvent(ctx, event)
		case <-ctx.Done():
			return delivered, ctx.Err()
		}
	}
}

// websocketURL maps http(s)://host to ws(s)://host.
func websocketURL(server string) string {
	if rest, ok := strings.CutPrefix(server, "http"); ok {
		return "ws" + rest
	}
	return server
}

func (b *DecisionBot) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.webSocketClient != nil {
		b.log.Info().Msg("closing mattermost websocket connection")
		b.webSocketClient.Close()
	}
}

func (b *DecisionBot) handleWebSocketEvent(ctx context.Context, event *model.WebSocketEvent) {
	if event.EventType() != model.WebsocketEventPosted {
		return
	}

	post := &model.Post{}
	eventData, ok := event.GetData()["post"].(string)
	if !ok {
		b.log.Warn().Msg("could not cast event data to string")
		return
	}
	if err := json.Unmarshal([]byte(eventData), &post); err != nil {
		b.log.Warn().Err(err).Msg("could not unmarshal event to *model.Post")
		return
	}

	if post.UserId == b.user.Id {
		return
	}

	b.handlePost(ctx, post)
}

func (b *DecisionBot) handlePost(ctx context.Context, post *model.Post) {
	b.log.Debug().Str("msg", post.Message).Str("user", post.UserId).Msg("handling post")

	for _, r := range b.commands.Dispatch(ctx, post.UserId, post.Message) {
		if r.Delay <= 0 {
			b.Respond(post, r.Message)
			continue
		}
		msg := r.Message
		time.AfterFunc(r.Delay, func() { b.Respond(post, msg) })
	}
}

func (b *DecisionBot) Respond(post *model.Post, msg string) {
	resp := &model.Post{}
	resp.ChannelId = post.ChannelId
	resp.Message = msg
	resp.RootId = post.Id

	if _, _, err := b.client.CreatePost(resp); err != nil {
		b.log.Error().Err(err).Str("msg", msg).Str("post", post.Id).Msg("could not respond to post")
	}
}
