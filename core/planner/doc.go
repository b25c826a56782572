// Package planner places tasks on a day grid by formulating a 0/1 integer
// program over candidate start slots.
//
// A scheduling run normalizes raw tasks onto five-minute slots, builds a cost
// row per task from its category's hourly fatigue profile, enumerates the
// legal start offsets of every task inside its window and emits three
// constraint families: exactly one start per task, pairwise exclusion of
// overlapping candidates when the day has no committed schedule, and
// per-slot capacity rows when it does. The problem is handed to a Solver and
// the selected candidates are decoded and merged with the committed tasks.
package planner
