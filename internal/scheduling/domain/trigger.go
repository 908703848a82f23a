package domain

import (
	"time"

	"github.com/google/uuid"
)

// TriggerKind names what caused a recompute.
type TriggerKind string

const (
	TriggerCreated        TriggerKind = "created"
	TriggerLocked         TriggerKind = "locked"
	TriggerUnlocked       TriggerKind = "unlocked"
	TriggerCompleted      TriggerKind = "completed"
	TriggerCalendarSynced TriggerKind = "calendar_synced"
	TriggerTick           TriggerKind = "tick"
	TriggerRebuild        TriggerKind = "rebuild"
)

func (k TriggerKind) String() string { return string(k) }

// Trigger is one reason to recompute. The set of variants is closed; every
// variant carries the instant the engine treats as now.
type Trigger interface {
	Kind() TriggerKind
	At() time.Time
	trigger()
}

// Created primes a new task and schedules it against the current blocks.
type Created struct {
	TaskID uuid.UUID
	Time   time.Time
}

// Locked pins a task's score, then rebuilds everything.
type Locked struct {
	TaskID uuid.UUID
	Score  int
	Reason string
	By     string
	Time   time.Time
}

// Unlocked removes a pin, then rebuilds everything.
type Unlocked struct {
	TaskID uuid.UUID
	Time   time.Time
}

// Completed marks a task done and drops its blocks.
type Completed struct {
	TaskID uuid.UUID
	Time   time.Time
}

// CalendarSynced reports conflicts against new events, then rebuilds.
type CalendarSynced struct {
	Time time.Time
}

// Tick runs the overdue pass.
type Tick struct {
	Time time.Time
}

// Rebuild reschedules everything without changing any task first. Task
// edits and manual recomputes use it.
type Rebuild struct {
	Reason string
	Time   time.Time
}

func (t Created) Kind() TriggerKind        { return TriggerCreated }
func (t Locked) Kind() TriggerKind         { return TriggerLocked }
func (t Unlocked) Kind() TriggerKind       { return TriggerUnlocked }
func (t Completed) Kind() TriggerKind      { return TriggerCompleted }
func (t CalendarSynced) Kind() TriggerKind { return TriggerCalendarSynced }
func (t Tick) Kind() TriggerKind           { return TriggerTick }
func (t Rebuild) Kind() TriggerKind        { return TriggerRebuild }

func (t Created) At() time.Time        { return t.Time }
func (t Locked) At() time.Time         { return t.Time }
func (t Unlocked) At() time.Time       { return t.Time }
func (t Completed) At() time.Time      { return t.Time }
func (t CalendarSynced) At() time.Time { return t.Time }
func (t Tick) At() time.Time           { return t.Time }
func (t Rebuild) At() time.Time        { return t.Time }

func (Created) trigger()        {}
func (Locked) trigger()         {}
func (Unlocked) trigger()       {}
func (Completed) trigger()      {}
func (CalendarSynced) trigger() {}
func (Tick) trigger()           {}
func (Rebuild) trigger()        {}
