package table

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/yola1107/ludo/internal/model"
)

// start announces the table and puts the first seat on the clock.
func (t *Table) start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mLog.begin(t.Desc(), t.seats)
	t.save()
	v := t.viewLocked()
	t.broadcast(Event{Type: EventCreated, GameID: t.ID, Seq: t.game.Seq, View: &v, At: time.Now()})
	t.schedule()
}

// checkSeat 校验请求方: human seat whose turn it is.
func (t *Table) checkSeat(c model.Color) error {
	switch {
	case t.closed:
		return ErrTableClosed
	case t.game.Over():
		return model.ErrGameOver
	}
	seat, ok := t.seatOf(c)
	switch {
	case !ok:
		return ErrUnknownSeat
	case seat.IsAI():
		return ErrSeatNotHuman
	case c != t.game.Turn.Color:
		return ErrNotYourTurn
	}
	return nil
}

// Roll rolls for color. die 0 draws from the table dice; any other value is
// taken as the rolled face when the room allows client dice.
func (t *Table) Roll(c model.Color, die int) (model.Outcome, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkSeat(c); err != nil {
		return model.Outcome{}, err
	}
	if t.game.Phase != model.PhaseAwaitRoll {
		return model.Outcome{}, model.ErrWrongPhase
	}
	if die != 0 && !t.repo.GetRoomConfig().Game.AllowFixedDice {
		return model.Outcome{}, ErrFixedDice
	}
	if die == 0 {
		die = t.dice.Roll()
	}
	return t.apply(model.Roll(die), false)
}

// Move moves token of color with the die rolled this turn.
func (t *Table) Move(c model.Color, token int) (model.Outcome, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkSeat(c); err != nil {
		return model.Outcome{}, err
	}
	return t.apply(model.Move(token), false)
}

// Reset 取消本局, back to the initial layout with the same seats.
func (t *Table) Reset() (model.Outcome, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return model.Outcome{}, ErrTableClosed
	}
	return t.apply(model.Reset(), false)
}

// apply runs one command through the engine and fans the result out. Must
// hold mu.
func (t *Table) apply(cmd model.Command, timeout bool) (model.Outcome, error) {
	next, out, err := t.game.Apply(cmd)
	if err != nil {
		log.Debugf("command rejected. tb=%s cmd=%v err=%v", t.ID, cmd.Kind, err)
		return out, err
	}

	now := time.Now()
	t.game = next
	t.updatedAt = now

	var typ EventType
	switch cmd.Kind {
	case model.CmdRoll:
		typ = EventRolled
		t.mLog.dice(out, timeout)
	case model.CmdMove:
		typ = EventMoved
		t.mLog.move(out, timeout)
	case model.CmdReset:
		typ = EventReset
		t.round++
		t.startedAt = now
		t.finishedAt = nil
		t.mLog.reset(t.Desc())
	}
	log.Debugf("%v. tb=%s out=%+v timeout=%v", typ, t.ID, out, timeout)

	if out.Winner.Valid() {
		t.finishedAt = &now
		t.onFinish()
	}
	t.save()

	v := t.viewLocked()
	t.broadcast(Event{Type: typ, GameID: t.ID, Seq: t.game.Seq, Timeout: timeout, Outcome: &out, View: &v, At: now})
	if t.game.Over() {
		t.broadcast(Event{Type: EventFinished, GameID: t.ID, Seq: t.game.Seq, View: &v, At: now})
	}
	t.schedule()
	return out, nil
}

// save writes the snapshot synchronously so snapshots never land out of order.
func (t *Table) save() {
	ctx, cancel := context.WithTimeout(context.Background(), t.repo.GetRoomConfig().Game.SaveTimeout.Std())
	defer cancel()
	if err := t.repo.SaveSnapshot(ctx, t.viewLocked()); err != nil {
		log.Warnf("save snapshot failed. tb=%s seq=%d err=%v", t.ID, t.game.Seq, err)
	}
}

// onFinish 结算: records and publishes the result off the table lock.
func (t *Table) onFinish() {
	h := t.history()
	t.mLog.settle(h)
	log.Infof("game finished. tb=%s winner=%v turns=%d", t.ID, h.Winner, h.Turns)

	t.repo.GetLoop().Post(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := t.repo.SaveHistory(ctx, h); err != nil {
			log.Errorf("save history failed. tb=%s err=%v", h.ID, err)
		}
		if err := t.repo.PublishResult(ctx, h); err != nil {
			log.Errorf("publish result failed. tb=%s err=%v", h.ID, err)
		}
	})
}
