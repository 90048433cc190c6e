package tasks

// TaskSchedulerInterface defines the operations the rest of the application
// uses to drive background alert evaluation.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
