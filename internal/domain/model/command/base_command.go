package model

import "github.com/google/uuid"

type BaseCommand struct {
	CommandID string `json:"command_id"`
}

func NewBaseCommand() BaseCommand {
	return BaseCommand{CommandID: uuid.New().String()}
}

func (c *BaseCommand) GetID() string {
	return c.CommandID
}

type CommandType string

type Command interface {
	Type() CommandType
	GetID() string
}
