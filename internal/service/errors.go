package service

import "errors"

var ErrInvalidLaborHours = errors.New("labor hours must be greater than zero")
