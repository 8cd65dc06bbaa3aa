package engine

import "math/rand"

// Court geometry and tuning. The court is 100 wide (x in [-50, 50]) and 200
// tall (y in [-100, 100]); paddles sit on the x = ±50 planes.
const (
	CourtHalfHeight = 100.0
	PaddlePlaneX    = 50.0
	PaddleHeight    = 40.0
	PaddleStep      = 15.0
	SpeedIncrement  = 0.1
	CollisionTol    = 2.0

	DefaultScoreLimit = 5
)

// TopBoundary/BottomBoundary are the clamp range for a paddle's center.
const (
	TopBoundary    = CourtHalfHeight - PaddleHeight/2
	BottomBoundary = -CourtHalfHeight + PaddleHeight/2
)

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

type Slot string

const (
	SlotPlayer1 Slot = "player1"
	SlotPlayer2 Slot = "player2"
)

type Direction string

const (
	DirUp   Direction = "up"
	DirDown Direction = "down"
)

type Ball struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type Paddles struct {
	Player1Y float64 `json:"player1"`
	Player2Y float64 `json:"player2"`
}

type Score struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

// State is a plain value; Step returns a new one and never aliases the input.
type State struct {
	Status     Status  `json:"status"`
	Ball       Ball    `json:"ball"`
	Paddles    Paddles `json:"paddles"`
	Score      Score   `json:"score"`
	ScoreLimit int     `json:"-"`
	Winner     Slot    `json:"winner,omitempty"`
}

type CommandType string

const (
	CmdMovePaddle CommandType = "MovePaddle"
	CmdSetPaddle  CommandType = "SetPaddle"
)

type Command struct {
	Type      CommandType
	Slot      Slot
	Direction Direction
	Y         float64
}

// Inputs holds at most one pending command per paddle; the room overwrites
// stale entries so only the latest command of a tick window is applied.
type Inputs map[Slot]Command

func NewState(scoreLimit int) State {
	if scoreLimit <= 0 {
		scoreLimit = DefaultScoreLimit
	}
	return State{
		Status:     StatusWaiting,
		Ball:       Ball{X: 0, Y: 0, DX: 1, DY: 0.5},
		ScoreLimit: scoreLimit,
	}
}

// Start transitions a waiting session into play. Finished sessions stay
// finished.
func Start(s State) State {
	if s.Status == StatusWaiting {
		s.Status = StatusPlaying
	}
	return s
}

// Step advances the simulation by one tick: paddle inputs first, then ball
// movement, wall and paddle bounces, then goals. rng feeds the serve reset
// after a goal; passing a seeded source makes the whole tick deterministic.
func Step(s State, inputs Inputs, rng *rand.Rand) State {
	if s.Status == StatusFinished {
		return s
	}

	s.Paddles.Player1Y = applyPaddleInput(s.Paddles.Player1Y, inputs[SlotPlayer1])
	s.Paddles.Player2Y = applyPaddleInput(s.Paddles.Player2Y, inputs[SlotPlayer2])

	if s.Status != StatusPlaying {
		return s
	}

	s.Ball.X += s.Ball.DX
	s.Ball.Y += s.Ball.DY

	// Wall bounce: dy flips, dx is untouched.
	if s.Ball.Y >= CourtHalfHeight {
		s.Ball.Y = CourtHalfHeight
		s.Ball.DY = -s.Ball.DY
	} else if s.Ball.Y <= -CourtHalfHeight {
		s.Ball.Y = -CourtHalfHeight
		s.Ball.DY = -s.Ball.DY
	}

	// Left paddle. Bounce speed grows without bound, so a fast ball can
	// overshoot the collision plane within one tick; anything at or past the
	// plane still bounces while it is inbound and the paddle covers it, and
	// the clamp pulls it back in court before the goal check runs.
	if s.Ball.X <= -PaddlePlaneX+CollisionTol &&
		s.Ball.DX < 0 && withinPaddle(s.Ball.Y, s.Paddles.Player1Y) {
		s.Ball.X = -PaddlePlaneX + CollisionTol
		s.Ball = bounceOffPaddle(s.Ball, s.Paddles.Player1Y)
	}

	// Right paddle.
	if s.Ball.X >= PaddlePlaneX-CollisionTol &&
		s.Ball.DX > 0 && withinPaddle(s.Ball.Y, s.Paddles.Player2Y) {
		s.Ball.X = PaddlePlaneX - CollisionTol
		s.Ball = bounceOffPaddle(s.Ball, s.Paddles.Player2Y)
	}

	if s.Ball.X > PaddlePlaneX {
		s.Score.Player1++
		s = checkFinished(s, SlotPlayer1)
		s.Ball = resetBall(rng)
	} else if s.Ball.X < -PaddlePlaneX {
		s.Score.Player2++
		s = checkFinished(s, SlotPlayer2)
		s.Ball = resetBall(rng)
	}

	return s
}

func applyPaddleInput(y float64, cmd Command) float64 {
	switch cmd.Type {
	case CmdMovePaddle:
		switch cmd.Direction {
		case DirUp:
			y += PaddleStep
		case DirDown:
			y -= PaddleStep
		}
	case CmdSetPaddle:
		y = cmd.Y
	default:
		return y
	}
	return clamp(y, BottomBoundary, TopBoundary)
}

func withinPaddle(ballY, paddleY float64) bool {
	return ballY >= paddleY-PaddleHeight/2 && ballY <= paddleY+PaddleHeight/2
}

// bounceOffPaddle flips the horizontal velocity and rebuilds the vertical
// component from where the ball struck the paddle; every bounce speeds the
// ball up by SpeedIncrement.
func bounceOffPaddle(b Ball, paddleY float64) Ball {
	normalized := (b.Y - paddleY) / (PaddleHeight / 2)
	b.DX = -b.DX
	b.DY = normalized * abs(b.DX)
	if b.DX > 0 {
		b.DX += SpeedIncrement
	} else {
		b.DX -= SpeedIncrement
	}
	return b
}

func checkFinished(s State, scorer Slot) State {
	score := s.Score.Player1
	if scorer == SlotPlayer2 {
		score = s.Score.Player2
	}
	if score >= s.ScoreLimit {
		s.Status = StatusFinished
		s.Winner = scorer
	}
	return s
}

func resetBall(rng *rand.Rand) Ball {
	b := Ball{X: 0, Y: 0}
	if rng.Float64() > 0.5 {
		b.DX = 1
	} else {
		b.DX = -1
	}
	b.DY = (rng.Float64() - 0.5) * 2
	return b
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
