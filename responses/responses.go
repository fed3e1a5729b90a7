// Package responses records players' replies to game invitations and the
// drinkers list kept after each game.
package responses

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/padraicbc/footy/apperr"
	"github.com/padraicbc/footy/clock"
	"github.com/padraicbc/footy/metrics"
	"github.com/padraicbc/footy/models"
	"github.com/padraicbc/footy/store"
	"github.com/padraicbc/footy/tokens"
)

// Recomputer rebuilds standings after an outcome write.
type Recomputer interface {
	UpsertFromGameDay(ctx context.Context, gameDayID int) error
}

// Reply is one player's answer for one game day.
type Reply struct {
	GameDayID int             `json:"gameDayId"`
	PlayerID  int             `json:"playerId"`
	Response  models.Response `json:"response"`
	Goalie    bool            `json:"goalie"`
	Comment   string          `json:"comment"`
}

// Selection ticks a player on the drinkers list.
type Selection struct {
	PlayerID int  `json:"playerId"`
	Drinker  bool `json:"drinker"`
}

type Service struct {
	store     store.Store
	tokens    *tokens.Service
	standings Recomputer
	clock     clock.Clock
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

func New(st store.Store, tok *tokens.Service, rc Recomputer, clk clock.Clock, logger *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:     st,
		tokens:    tok,
		standings: rc,
		clock:     clk,
		logger:    logger.Named("responses"),
		metrics:   m,
	}
}

func trimmedOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Respond records r. The first reply after an invitation stores how long the
// player took to answer; later replies keep that figure.
func (s *Service) Respond(ctx context.Context, r Reply) (*models.Outcome, error) {
	return s.respond(ctx, r, "player")
}

// AdminRespond records a reply gathered by phone or in person.
func (s *Service) AdminRespond(ctx context.Context, r Reply) (*models.Outcome, error) {
	return s.respond(ctx, r, "admin")
}

// RespondWithToken resolves the emailed link to its game day and player and
// records the reply for them. IDs in r are ignored.
func (s *Service) RespondWithToken(ctx context.Context, raw string, r Reply) (*models.Outcome, error) {
	tok, err := s.tokens.Lookup(ctx, models.PurposeGameResponse, raw)
	if err != nil {
		return nil, err
	}
	if tok.GameDayID == nil || tok.PlayerID == nil {
		return nil, tokens.ErrInvalid
	}
	r.GameDayID, r.PlayerID = *tok.GameDayID, *tok.PlayerID
	return s.respond(ctx, r, "token")
}

func (s *Service) respond(ctx context.Context, r Reply, source string) (*models.Outcome, error) {
	if !r.Response.Valid() {
		return nil, apperr.Validation("response must be yes, no or unknown", nil)
	}
	gd, err := s.store.GetGameDay(ctx, r.GameDayID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetPlayer(ctx, r.PlayerID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	resp := r.Response
	o := &models.Outcome{
		GameDayID: r.GameDayID,
		PlayerID:  r.PlayerID,
		Response:  &resp,
		Goalie:    r.Goalie,
		Comment:   trimmedOrNil(r.Comment),
		UpdatedAt: now,
	}

	existing, err := s.store.GetOutcome(ctx, r.GameDayID, r.PlayerID)
	switch {
	case err == nil:
		o.ResponseInterval = existing.ResponseInterval
		o.Team, o.Points, o.Pub = existing.Team, existing.Points, existing.Pub
	case errors.Is(err, store.ErrOutcomeNotFound):
		if gd.InvitationSent != nil {
			secs := max(0, int(now.Sub(*gd.InvitationSent).Seconds()))
			o.ResponseInterval = &secs
		}
	default:
		return nil, err
	}

	err = s.store.UpsertOutcome(ctx, o,
		store.ColResponse, store.ColResponseInterval, store.ColGoalie, store.ColComment)
	if err != nil {
		return nil, err
	}
	s.metrics.OutcomeWritten(source)
	s.logger.Info("response recorded",
		zap.Int("game_day_id", r.GameDayID),
		zap.Int("player_id", r.PlayerID),
		zap.String("response", string(resp)),
		zap.String("source", source),
	)

	return o, s.standings.UpsertFromGameDay(ctx, r.GameDayID)
}

// SetDrinkers writes the pub column for every player on the roster or in
// selections. A ticked player who played gets PubPlayed, a ticked player who
// did not gets PubNotPlayed, everyone else is cleared. A player listed twice
// takes the last entry. The result maps each written player to its value.
func (s *Service) SetDrinkers(ctx context.Context, gameDayID int, selections []Selection) (map[int]*int, error) {
	if _, err := s.store.GetGameDay(ctx, gameDayID); err != nil {
		return nil, err
	}
	roster, err := s.store.ListOutcomes(ctx, gameDayID)
	if err != nil {
		return nil, err
	}

	var order []int
	playedBy := make(map[int]bool)
	for _, o := range roster {
		if _, seen := playedBy[o.PlayerID]; !seen {
			order = append(order, o.PlayerID)
		}
		playedBy[o.PlayerID] = o.Played()
	}
	ticked := make(map[int]bool)
	for _, sel := range selections {
		if _, seen := playedBy[sel.PlayerID]; !seen {
			if _, dup := ticked[sel.PlayerID]; !dup {
				order = append(order, sel.PlayerID)
			}
		}
		ticked[sel.PlayerID] = sel.Drinker
	}

	now := s.clock.Now()
	result := make(map[int]*int, len(order))
	for _, playerID := range order {
		var pub *int
		if ticked[playerID] {
			v := models.PubNotPlayed
			if playedBy[playerID] {
				v = models.PubPlayed
			}
			pub = &v
		}
		o := &models.Outcome{GameDayID: gameDayID, PlayerID: playerID, Pub: pub, UpdatedAt: now}
		if err := s.store.UpsertOutcome(ctx, o, store.ColPub); err != nil {
			return nil, err
		}
		s.metrics.OutcomeWritten("drinkers")
		result[playerID] = pub
	}

	s.logger.Info("drinkers recorded", zap.Int("game_day_id", gameDayID), zap.Int("players", len(order)))
	return result, s.standings.UpsertFromGameDay(ctx, gameDayID)
}
