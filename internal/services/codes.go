package services

import (
	"errors"

	"event-ticketing-manager/internal/models"
	"event-ticketing-manager/internal/utils"
)

// maxCodeAttempts bounds how many codes are drawn for one record.
const maxCodeAttempts = 5

// insertWithCode draws a code with prefix and passes it to insert, drawing
// again while the store reports the code as taken.
func insertWithCode(codes utils.CodeGenerator, prefix string, insert func(code string) error) error {
	var err error
	for range maxCodeAttempts {
		code, genErr := codes.NewCode(prefix)
		if genErr != nil {
			return models.WrapPersistence("generate code", genErr)
		}
		err = insert(code)
		if !errors.Is(err, models.ErrDuplicateCode) {
			return err
		}
	}
	return err
}
