package config

type WorkerKeyStruct struct {
	GradeRecalcQueue string
}

var WorkerKey = &WorkerKeyStruct{
	GradeRecalcQueue: "grade_recalc_queue",
}
