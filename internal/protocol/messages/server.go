package messages

import (
	"strconv"

	"github.com/danmuck/orwellctl/internal/protocol/pbwire"
	"github.com/danmuck/orwellctl/internal/protocol/schema"
	"google.golang.org/protobuf/encoding/protowire"
)

// Welcome answers a Hello with the server-assigned identity.
type Welcome struct {
	ID        uint64
	Robot     string
	Team      string
	GameState *GameState
}

func (Welcome) Type() schema.MessageType { return schema.MsgWelcome }

// RoutingID is the bus topic the server assigned to this client.
func (w Welcome) RoutingID() string {
	return strconv.FormatUint(w.ID, 10)
}

func (w Welcome) fields() []pbwire.Field {
	fields := []pbwire.Field{pbwire.Uint(schema.FieldWelcomeID, w.ID)}
	if w.Robot != "" {
		fields = append(fields, pbwire.String(schema.FieldWelcomeRobot, w.Robot))
	}
	if w.Team != "" {
		fields = append(fields, pbwire.String(schema.FieldWelcomeTeam, w.Team))
	}
	if w.GameState != nil {
		fields = append(fields, pbwire.Message(schema.FieldWelcomeGameState, w.GameState.fields()))
	}
	return fields
}

func welcomeFromFields(fields []pbwire.Field) (Welcome, error) {
	var w Welcome
	var err error
	if w.ID, err = optionalUint(fields, schema.FieldWelcomeID); err != nil {
		return Welcome{}, err
	}
	if w.Robot, err = optionalString(fields, schema.FieldWelcomeRobot); err != nil {
		return Welcome{}, err
	}
	if w.Team, err = optionalString(fields, schema.FieldWelcomeTeam); err != nil {
		return Welcome{}, err
	}
	if _, ok := pbwire.GetField(fields, schema.FieldWelcomeGameState); ok {
		gsFields, err := nested(fields, schema.FieldWelcomeGameState, schema.MsgGameState.String())
		if err != nil {
			return Welcome{}, err
		}
		gs, err := gameStateFromFields(gsFields)
		if err != nil {
			return Welcome{}, err
		}
		w.GameState = &gs
	}
	return w, nil
}

// Goodbye ends the session.
type Goodbye struct{}

func (Goodbye) Type() schema.MessageType { return schema.MsgGoodbye }

// Team is one scoreboard row of a GameState.
type Team struct {
	Name       string
	NumPlayers uint32
	Score      uint32
}

// GameState is the server's world snapshot.
type GameState struct {
	Playing bool
	Running bool
	Seconds uint64
	Teams   []Team
}

func (GameState) Type() schema.MessageType { return schema.MsgGameState }

func (gs GameState) fields() []pbwire.Field {
	fields := []pbwire.Field{
		pbwire.Bool(schema.FieldGameStatePlaying, gs.Playing),
		pbwire.Uint(schema.FieldGameStateSeconds, gs.Seconds),
		pbwire.Bool(schema.FieldGameStateRunning, gs.Running),
	}
	for _, team := range gs.Teams {
		fields = append(fields, pbwire.Message(schema.FieldGameStateTeams, []pbwire.Field{
			pbwire.String(schema.FieldTeamName, team.Name),
			pbwire.Uint(schema.FieldTeamNumPlayers, uint64(team.NumPlayers)),
			pbwire.Uint(schema.FieldTeamScore, uint64(team.Score)),
		}))
	}
	return fields
}

func gameStateFromFields(fields []pbwire.Field) (GameState, error) {
	var gs GameState
	var err error
	if gs.Playing, err = optionalBool(fields, schema.FieldGameStatePlaying); err != nil {
		return GameState{}, err
	}
	if gs.Running, err = optionalBool(fields, schema.FieldGameStateRunning); err != nil {
		return GameState{}, err
	}
	if gs.Seconds, err = optionalUint(fields, schema.FieldGameStateSeconds); err != nil {
		return GameState{}, err
	}
	for _, f := range pbwire.GetAll(fields, schema.FieldGameStateTeams) {
		teamFields, err := f.AsMessage()
		if err != nil {
			return GameState{}, err
		}
		if err := schema.Validate(schema.ShapeTeam, teamFields); err != nil {
			return GameState{}, err
		}
		var team Team
		if team.Name, err = optionalString(teamFields, schema.FieldTeamName); err != nil {
			return GameState{}, err
		}
		players, err := optionalUint(teamFields, schema.FieldTeamNumPlayers)
		if err != nil {
			return GameState{}, err
		}
		score, err := optionalUint(teamFields, schema.FieldTeamScore)
		if err != nil {
			return GameState{}, err
		}
		team.NumPlayers = uint32(players)
		team.Score = uint32(score)
		gs.Teams = append(gs.Teams, team)
	}
	return gs, nil
}

// nested decodes and validates the message field num as shape.
func nested(fields []pbwire.Field, num protowire.Number, shape string) ([]pbwire.Field, error) {
	f, ok := pbwire.GetField(fields, num)
	if !ok {
		return nil, schema.ValidationError{Shape: shape, Field: num, Reason: "missing nested message"}
	}
	inner, err := f.AsMessage()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(shape, inner); err != nil {
		return nil, err
	}
	return inner, nil
}
