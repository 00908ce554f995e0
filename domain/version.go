package domain

// CheckVersion rejects an update whose expected version no longer matches the
// task. A nil expected version accepts any current version.
//
// This only fails fast on stale reads; the store still has to apply the write
// with an atomic compare-and-increment.
func CheckVersion(task *Task, expected *int) error {
	if task == nil {
		return ErrTaskNotFound
	}
	if expected == nil {
		return nil
	}
	if *expected != task.Version {
		return NewVersionConflict(task.ID, *expected, task.Version)
	}
	return nil
}
