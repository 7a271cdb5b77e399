package table

import (
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/yola1107/ludo/internal/model"
	"github.com/yola1107/ludo/library/ext"
)

/*
	回合定时: ai seats act after a thinking delay, human seats are played
	for by the fallback strategy when their turn times out.
*/

func (t *Table) cancelStage() {
	if t.stage.timerID > 0 {
		t.repo.GetTimer().Cancel(t.stage.timerID)
	}
	t.stage = stage{}
}

// schedule arms the timer for whoever acts next. Must hold mu.
func (t *Table) schedule() {
	t.cancelStage()
	if t.closed || t.game.Over() {
		return
	}
	seat, ok := t.seatOf(t.game.Turn.Color)
	if !ok {
		log.Errorf("schedule: turn color not seated. tb=%s", t.Desc())
		return
	}

	c := t.repo.GetRoomConfig()
	seq := t.game.Seq
	if seat.IsAI() {
		delay := thinkDelay(c.Robot.ThinkMin.Std(), c.Robot.ThinkMax.Std())
		id := t.repo.GetTimer().Once(delay, func() { t.onTimer(seq, false) })
		t.stage = stage{timerID: id, deadline: time.Now().Add(delay), auto: true}
		return
	}
	if timeout := c.Turn.Timeout.Std(); timeout > 0 {
		id := t.repo.GetTimer().Once(timeout, func() { t.onTimer(seq, true) })
		t.stage = stage{timerID: id, deadline: time.Now().Add(timeout)}
	}
}

func thinkDelay(from, to time.Duration) time.Duration {
	if to <= from {
		return from
	}
	return time.Duration(ext.RandInt(int64(from), int64(to)+1))
}

// onTimer fires on the work pool. A timer armed for an older seq lost a race
// with a command and is dropped.
func (t *Table) onTimer(seq int64, timeout bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.game.Seq != seq || t.game.Over() {
		return
	}

	seat, _ := t.seatOf(t.game.Turn.Color)
	strategy := t.strategyFor(seat, timeout)
	if timeout {
		log.Infof("turn timeout, playing for %v with %s. tb=%s", seat.Color, strategy, t.ID)
	}
	if _, err := t.autoPlay(strategy, timeout); err != nil {
		log.Errorf("auto play failed. tb=%s err=%v", t.Desc(), err)
	}
}

func (t *Table) strategyFor(seat Seat, timeout bool) model.Strategy {
	c := t.repo.GetRoomConfig()
	name := c.Robot.Strategy
	switch {
	case timeout:
		name = c.Turn.Fallback
	case seat.Strategy != "":
		return seat.Strategy
	}
	s, err := model.ParseStrategy(name)
	if err != nil {
		return model.StrategyFurthest
	}
	return s
}

// autoPlay takes the next step of the current turn. Must hold mu.
func (t *Table) autoPlay(s model.Strategy, timeout bool) (model.Outcome, error) {
	return t.apply(model.NextCommand(t.game, t.dice, s, t.rng), timeout)
}
