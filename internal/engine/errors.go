package engine

import "errors"

// Ошибки построения плана.
var (
	// ErrEmptyPlan — план не содержит стадий.
	ErrEmptyPlan = errors.New("plan has no stages")

	// ErrDuplicateStage — стадия с таким именем уже объявлена.
	ErrDuplicateStage = errors.New("duplicate stage")

	// ErrMissingDependency — стадия зависит от необъявленной стадии.
	ErrMissingDependency = errors.New("unknown stage dependency")

	// ErrCyclicDependency — обнаружена циклическая зависимость стадий.
	ErrCyclicDependency = errors.New("cyclic dependency in plan")
)
