package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vovakirdan/tongits/internal/cards"
	"github.com/vovakirdan/tongits/internal/protocol"
)

// CommandKind says what a typed line asks for.
type CommandKind int

const (
	CommandAction CommandKind = iota // send Action to the host
	CommandStart                     // deal a round (host only)
	CommandNames                     // request membership
	CommandState                     // re-fetch the table view
	CommandHelp                      // toggle full help
	CommandQuit                      // leave the table
)

// Command is a parsed input line.
type Command struct {
	Kind   CommandKind
	Action protocol.Action
}

// ErrEmptyCommand is returned for a blank line.
var ErrEmptyCommand = errors.New("empty command")

// Usage lists the accepted commands, one per line.
const Usage = `pick                      draw from the deck
take <cards>              take the discard top with cards from your hand
expose <cards>            lay a meld from your hand
layoff <card> <seat> <n>  add a card to meld n of seat
discard <card>            end your turn
draw                      call draw
challenge | fold          answer a draw call
done                      finish final melding
yes | no                  vote on a rematch
start                     deal a round (host)
names | state             refresh membership or table
help | quit`

// ParseCommand reads one input line such as "take 5H 5D" or "layoff 7h 1 0".
// Cards use the short form: rank then suit letter.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Command{}, ErrEmptyCommand
	}
	verb, args := fields[0], fields[1:]

	noArgs := func(c Command) (Command, error) {
		if len(args) != 0 {
			return Command{}, fmt.Errorf("%s takes no arguments", verb)
		}
		return c, nil
	}
	action := func(a protocol.Action) Command { return Command{Kind: CommandAction, Action: a} }

	var (
		cmd Command
		err error
	)
	switch verb {
	case "pick", "deck":
		cmd, err = noArgs(action(protocol.PickDeck{}))
	case "take":
		var cs []cards.Card
		if cs, err = parseCards(args); err == nil {
			cmd = action(protocol.PickDiscard{Cards: cs})
		}
	case "expose", "meld":
		var cs []cards.Card
		if cs, err = parseCards(args); err == nil {
			cmd = action(protocol.Expose{Cards: cs})
		}
	case "layoff", "lay":
		cmd, err = parseLayOff(args)
	case "discard", "drop":
		if len(args) != 1 {
			return Command{}, errors.New("usage: discard <card>")
		}
		var c cards.Card
		if c, err = cards.Parse(args[0]); err == nil {
			cmd = action(protocol.Discard{Card: c})
		}
	case "draw":
		cmd, err = noArgs(action(protocol.Draw{}))
	case "challenge":
		cmd, err = noArgs(action(protocol.Challenge{Value: 1}))
	case "fold":
		cmd, err = noArgs(action(protocol.Challenge{Value: 0}))
	case "done":
		cmd, err = noArgs(action(protocol.Done{}))
	case "yes", "rematch":
		cmd, err = noArgs(action(protocol.Rematch{Value: 1}))
	case "no":
		cmd, err = noArgs(action(protocol.Rematch{Value: 0}))
	case "start", "deal":
		cmd, err = noArgs(Command{Kind: CommandStart})
	case "names", "who":
		cmd, err = noArgs(Command{Kind: CommandNames})
	case "state", "refresh":
		cmd, err = noArgs(Command{Kind: CommandState})
	case "help", "?":
		cmd, err = noArgs(Command{Kind: CommandHelp})
	case "quit", "leave", "exit":
		cmd, err = noArgs(Command{Kind: CommandQuit})
	default:
		return Command{}, fmt.Errorf("unknown command %q (try help)", verb)
	}
	if err != nil {
		return Command{}, err
	}

	// Catch card-count mistakes before they reach the host.
	if v, ok := cmd.Action.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return Command{}, err
		}
	}
	return cmd, nil
}

func parseCards(args []string) ([]cards.Card, error) {
	if len(args) == 0 {
		return nil, errors.New("no cards given")
	}
	out := make([]cards.Card, 0, len(args))
	for _, a := range args {
		for _, part := range strings.Split(a, ",") {
			if part == "" {
				continue
			}
			c, err := cards.Parse(part)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
	}
	return out, nil
}

func parseLayOff(args []string) (Command, error) {
	if len(args) != 3 {
		return Command{}, errors.New("usage: layoff <card> <seat> <meld>")
	}
	c, err := cards.Parse(args[0])
	if err != nil {
		return Command{}, err
	}
	owner, err := strconv.Atoi(args[1])
	if err != nil {
		return Command{}, fmt.Errorf("bad seat %q", args[1])
	}
	index, err := strconv.Atoi(args[2])
	if err != nil {
		return Command{}, fmt.Errorf("bad meld number %q", args[2])
	}
	return Command{Kind: CommandAction, Action: protocol.LayOff{Card: c, Owner: owner, Meld: index}}, nil
}
