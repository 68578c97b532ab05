package controller

import "fmt"

type State uint8

const (
	StateInit State = iota
	StateWelcome
	StateWaitingGameStart
	StateGameRunning
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateWelcome:
		return "welcome"
	case StateWaitingGameStart:
		return "waiting_game_start"
	case StateGameRunning:
		return "game_running"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}
