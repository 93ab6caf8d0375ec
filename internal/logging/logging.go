// Package logging sets up structured logging for the engine, via
// go.uber.org/zap (grounded on
// mcastellin-golang-mastery/distributed-queue's zap.NewProduction
// usage) in place of the teacher's fmt.Printf/emoji style.
package logging

import "go.uber.org/zap"

// New builds a production logger in non-development deployments and a
// development logger (human-readable, lower level) otherwise.
func New(development bool) (*zap.SugaredLogger, error) {
	var logger *zap.Logger
	var err error
	if development {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
