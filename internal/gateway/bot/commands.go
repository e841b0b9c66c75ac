package bot

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Xausdorf/decision-room/internal/domain"
	"github.com/Xausdorf/decision-room/internal/usecase"
)

const (
	roomCreateMinArgsCount = 1
	roomCreateMaxArgsCount = 2
	roomOptionArgsCount    = 2
	roomVoteArgsCount      = 2
	roomTiebreakArgsCount  = 2
)

// Reply is a message to post back. Delay postpones posting it.
type Reply struct {
	Message string
	Delay   time.Duration
}

// Commands turns chat messages into lifecycle operations on behalf of the
// posting user.
type Commands struct {
	rooms       *usecase.Room
	revealDelay time.Duration
	log         zerolog.Logger
}

func NewCommands(rooms *usecase.Room, revealDelay time.Duration, log zerolog.Logger) *Commands {
	return &Commands{
		rooms:       rooms,
		revealDelay: revealDelay,
		log:         log,
	}
}

// Dispatch runs the command in message. Messages that are not commands
// yield no replies.
func (c *Commands) Dispatch(ctx context.Context, userID, message string) []Reply {
	// CSV reading for splitting a string at spaces, except spaces inside quotation marks.
	r := csv.NewReader(strings.NewReader(message))
	r.Comma = ' '
	tokens, err := r.Read()
	if err != nil {
		c.log.Debug().Err(err).Str("msg", message).Msg("could not split message")
		return nil
	}
	tokens = dropEmpty(tokens)
	if len(tokens) == 0 {
		return nil
	}

	args := tokens[1:]
	switch tokens[0] {
	case "/room_create":
		return c.handleCreate(ctx, userID, args)
	case "/room_join":
		return c.handleJoin(ctx, userID, args)
	case "/room_leave":
		return c.handleLeave(ctx, userID, args)
	case "/room_option":
		return c.handleOption(ctx, userID, args)
	case "/room_start":
		return c.handleStart(ctx, userID, args)
	case "/room_vote":
		return c.handleVote(ctx, userID, args)
	case "/room_end":
		return c.handleEnd(ctx, userID, args)
	case "/room_tiebreak":
		return c.handleTiebreak(ctx, userID, args)
	case "/room_show":
		return c.handleShow(ctx, userID, args)
	case "/room_list":
		return c.handleList(ctx, userID)
	case "/room_history":
		return c.handleHistory(ctx, userID)
	case "/room_delete":
		return c.handleDelete(ctx, userID, args)
	case "/help":
		return reply(helpMessage)
	}
	return nil
}

func (c *Commands) handleCreate(ctx context.Context, userID string, args []string) []Reply {
	// /room_create "[title]" "[description]"
	if len(args) < roomCreateMinArgsCount || len(args) > roomCreateMaxArgsCount {
		return reply(`Usage: /room_create "[title]" "[description]"`)
	}
	description := ""
	if len(args) == roomCreateMaxArgsCount {
		description = args[1]
	}
	room, err := c.rooms.CreateRoom(ctx, userID, args[0], description)
	if err != nil {
		return c.failure("create room", err)
	}
	return reply(fmt.Sprintf("Room %q created!\nID: %s\nJoin code: %s\nAdd options with /room_option %s \"[text]\"",
		room.Title, room.ID, room.Code, room.ID))
}

func (c *Commands) handleJoin(ctx context.Context, userID string, args []string) []Reply {
	// /room_join [code]
	if len(args) != 1 {
		return reply("There must be 1 argument: join code")
	}
	room, err := c.rooms.JoinByCode(ctx, args[0], userID)
	if err != nil {
		return c.failure("join room", err)
	}
	return reply("You joined the room\n" + describe(&room, userID))
}

func (c *Commands) handleLeave(ctx context.Context, userID string, args []string) []Reply {
	// /room_leave [roomID]
	if len(args) != 1 {
		return reply("There must be 1 argument: room ID")
	}
	if _, err := c.rooms.LeaveRoom(ctx, args[0], userID); err != nil {
		return c.failure("leave room", err)
	}
	return reply("You left the room")
}

func (c *Commands) handleOption(ctx context.Context, userID string, args []string) []Reply {
	// /room_option [roomID] "[text]"
	if len(args) != roomOptionArgsCount {
		return reply(`There must be 2 arguments: room ID and "option text"`)
	}
	room, err := c.rooms.AddOption(ctx, args[0], userID, args[1])
	if err != nil {
		return c.failure("add option", err)
	}
	return reply(fmt.Sprintf("Option %d added", len(room.Options)))
}

func (c *Commands) handleStart(ctx context.Context, userID string, args []string) []Reply {
	// /room_start [roomID]
	if len(args) != 1 {
		return reply("There must be 1 argument: room ID")
	}
	room, err := c.rooms.StartVoting(ctx, args[0], userID)
	if err != nil {
		return c.failure("start voting", err)
	}
	return reply("Voting started! Vote with /room_vote " + room.ID + " [number]\n" + describe(&room, userID))
}

func (c *Commands) handleVote(ctx context.Context, userID string, args []string) []Reply {
	// /room_vote [roomID] [number]
	if len(args) != roomVoteArgsCount {
		return reply("There must be 2 arguments: room ID and option's number")
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return reply("Vote must be an integer: option's number")
	}
	room, err := c.rooms.GetRoom(ctx, args[0])
	if err != nil {
		return c.failure("vote", err)
	}
	if n < 1 || n > len(room.Options) {
		return reply("There are not so many options. Try again")
	}
	if _, err = c.rooms.CastVote(ctx, room.ID, userID, room.Options[n-1].ID); err != nil {
		return c.failure("vote", err)
	}
	return reply("Vote successfully registered")
}

func (c *Commands) handleEnd(ctx context.Context, userID string, args []string) []Reply {
	// /room_end [roomID]
	if len(args) != 1 {
		return reply("There must be 1 argument: room ID")
	}
	room, err := c.rooms.EndVoting(ctx, args[0], userID)
	if err != nil {
		return c.failure("end voting", err)
	}
	if room.Result != nil {
		return reply("Voting ended. Winner: " + optionText(&room, room.Result.WinningOptionID))
	}

	tied := domain.TallyVotes(&room).Tied
	texts := make([]string, len(tied))
	for i, id := range tied {
		texts[i] = optionText(&room, id)
	}
	methods := "dice or spinner"
	if len(tied) == 2 {
		methods = "dice, spinner or coin"
	}
	return reply(fmt.Sprintf("It's a tie between %s!\nBreak it with /room_tiebreak %s [method], method is %s",
		strings.Join(texts, ", "), room.ID, methods))
}

func (c *Commands) handleTiebreak(ctx context.Context, userID string, args []string) []Reply {
	// /room_tiebreak [roomID] [dice|spinner|coin]
	if len(args) != roomTiebreakArgsCount {
		return reply("There must be 2 arguments: room ID and method (dice, spinner or coin)")
	}
	method := domain.Tiebreaker(strings.ToLower(args[1]))
	room, err := c.rooms.ResolveTie(ctx, args[0], userID, method)
	if err != nil {
		return c.failure("break the tie", err)
	}
	return []Reply{
		{Message: drawMessage(method)},
		{
			Message: "The winner is " + optionText(&room, room.Result.WinningOptionID) + "!",
			Delay:   c.revealDelay,
		},
	}
}

func (c *Commands) handleShow(ctx context.Context, userID string, args []string) []Reply {
	// /room_show [roomID]
	if len(args) != 1 {
		return reply("There must be 1 argument: room ID")
	}
	room, err := c.rooms.ViewRoom(ctx, args[0], userID)
	if err != nil {
		return c.failure("show room", err)
	}
	return reply(describe(&room, userID))
}

func (c *Commands) handleList(ctx context.Context, userID string) []Reply {
	// /room_list
	rooms, err := c.rooms.ListUserRooms(ctx, userID)
	if err != nil {
		return c.failure("list rooms", err)
	}
	var b strings.Builder
	b.WriteString("Your open rooms:")
	open := 0
	for _, room := range rooms {
		if !room.IsOpen() {
			continue
		}
		open++
		fmt.Fprintf(&b, "\n* %s (%s) - %s, code %s", room.Title, room.ID, room.State, room.Code)
	}
	if open == 0 {
		b.WriteString("\nnone")
	}
	return reply(b.String())
}

func (c *Commands) handleHistory(ctx context.Context, userID string) []Reply {
	// /room_history
	rooms, err := c.rooms.ListHistory(ctx, userID)
	if err != nil {
		return c.failure("list history", err)
	}
	if len(rooms) == 0 {
		return reply("No decisions yet")
	}
	var b strings.Builder
	b.WriteString("Past decisions:")
	for i := range rooms {
		room := &rooms[i]
		fmt.Fprintf(&b, "\n* %s: %s", room.Title, optionText(room, room.Result.WinningOptionID))
		if room.Result.Tiebreaker != "" {
			fmt.Fprintf(&b, " (%s)", room.Result.Tiebreaker)
		}
		fmt.Fprintf(&b, ", %s", room.Result.ResolvedAt.Format(time.DateOnly))
	}
	return reply(b.String())
}

func (c *Commands) handleDelete(ctx context.Context, userID string, args []string) []Reply {
	// /room_delete [roomID]
	if len(args) != 1 {
		return reply("There must be 1 argument: room ID")
	}
	if err := c.rooms.DeleteRoom(ctx, args[0], userID); err != nil {
		return c.failure("delete room", err)
	}
	return reply("Room succesfully deleted")
}

// failure explains a rejected command. Unknown errors are logged and reported
// generically.
func (c *Commands) failure(action string, err error) []Reply {
	switch {
	case errors.Is(err, usecase.ErrAuthenticationRequired):
		return reply("I could not tell who you are")
	case errors.Is(err, usecase.ErrRoomNotFound):
		return reply("There is no room with such ID or code. Try again")
	case errors.Is(err, usecase.ErrOptionNotFound):
		return reply("There is no such option. Try again")
	case errors.Is(err, usecase.ErrCreatorCannotLeave):
		return reply("You created this room, delete it instead of leaving")
	case errors.Is(err, usecase.ErrAuthorizationDenied):
		return reply(fmt.Sprintf("You can not %s in this room", action))
	case errors.Is(err, usecase.ErrRoomClosed):
		return reply("This room is already closed")
	case errors.Is(err, usecase.ErrInsufficientOptions):
		return reply("At least 2 options are needed to start voting")
	case errors.Is(err, usecase.ErrTiebreakerNotApplicable):
		return reply("A coin only works for exactly 2 tied options, use dice or spinner")
	case errors.Is(err, usecase.ErrInvalidState):
		return reply(fmt.Sprintf("You can not %s right now: %v", action, err))
	case errors.Is(err, usecase.ErrInvalidInput):
		return reply(fmt.Sprintf("Failed to %s: %v", action, err))
	}
	c.log.Error().Err(err).Str("action", action).Msg("command failed")
	return reply(fmt.Sprintf("Failed to %s. Try again", action))
}

func reply(msg string) []Reply {
	return []Reply{{Message: msg}}
}

func dropEmpty(tokens []string) []string {
	out := tokens[:0]
	for _, t := range tokens {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func drawMessage(method domain.Tiebreaker) string {
	switch method {
	case domain.TiebreakerDice:
		return "Rolling the dice..."
	case domain.TiebreakerSpinner:
		return "Spinning the wheel..."
	default:
		return "Flipping a coin..."
	}
}

func optionText(room *domain.Room, optionID string) string {
	if idx := room.OptionIndex(optionID); idx >= 0 {
		return room.Options[idx].Text
	}
	return optionID
}

func describe(room *domain.Room, userID string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]\nID: %s\nCode: %s", room.Title, room.State, room.ID, room.Code)
	if room.Description != "" {
		fmt.Fprintf(&b, "\n%s", room.Description)
	}
	fmt.Fprintf(&b, "\nParticipants: %d", len(room.Participants))
	mine, _ := room.VoteOf(userID)
	for i, o := range room.Options {
		fmt.Fprintf(&b, "\n%d. %s", i+1, o.Text)
		if room.State != domain.StateCollecting {
			fmt.Fprintf(&b, " - votes: %d", len(o.Votes))
		}
		if o.ID == mine {
			b.WriteString(" (your vote)")
		}
	}
	if room.Result != nil {
		fmt.Fprintf(&b, "\nWinner: %s", optionText(room, room.Result.WinningOptionID))
	}
	return b.String()
}

const helpMessage = `Available commands:
	* /help - info about commands

	* /room_create "[title]" "[description]" - creates a room and returns its ID and join code.
	IMPORTANT: title and description must be quoted when they contain spaces.

	* /room_join [code] - joins the room with this code.

	* /room_leave [roomID] - leaves the room.

	* /room_option [roomID] "[text]" - proposes an option while the room is collecting.

	* /room_start [roomID] - creator opens the voting.

	* /room_vote [roomID] [number] - votes for the option with this number, voting again replaces the vote.

	* /room_end [roomID] - creator closes the voting.

	* /room_tiebreak [roomID] [dice|spinner|coin] - creator breaks a tie.

	* /room_show [roomID] - shows the room and its votes.

	* /room_list - lists your open rooms.

	* /room_history - lists your past decisions.

	* /room_delete [roomID] - creator deletes the room.`
