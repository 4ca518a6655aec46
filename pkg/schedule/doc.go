// Package schedule provides the recurring-schedule types cmd/scheduler uses
// to drive the UnlockStaleProcessing, CheckIdle, and DeleteOldEntries
// maintenance passes (the stats collector runs on its own ticker):
//   - Schedule interface for defining job schedules
//   - Every() for fixed-interval schedules
//   - Daily() for daily schedules at a specific time
//   - Weekly() for weekly schedules on a specific day and time
//   - Cron() for cron expression-based schedules
//   - Run() blocks, invoking fn each time sched.Next elapses, until ctx is
//     cancelled
package schedule
