package services

import (
	"errors"
	"fmt"
	"strings"
)

// User-facing texts. Each terminal outcome has exactly one.
const (
	MessageGameAlreadyOpen = "A game is already in progress!"
	MessageNoGameOpen      = "There is no game in progress."
	MessageJudging         = "Judging your shiritori... please wait a moment."
	MessageJudgingNote     = "(Pictures posted to other channels may be picked up; they are skipped automatically.)"
	MessageOtherChannel    = "That picture was not posted to the game channel, so it was skipped."
	MessageFarewell        = "Join us again next time!"
	MessageNobodyWon       = "Nobody completed a shiritori this time. Join us again next time!"
	MessageInternalError   = "Something went wrong while processing the request. Please try again later."
)

func MessageGameStarted(letter string) string {
	return fmt.Sprintf("Let's play AI picture shiritori! The first letter is... %s.", letter)
}

func MessageDeadline(hours int) string {
	return fmt.Sprintf("The deadline is %d hour(s) from now. Game start!", hours)
}

func MessageInvalidDuration(err error) string {
	var de *DurationError
	if errors.As(err, &de) && de.NotNumber {
		return fmt.Sprintf("The time limit [%s] is not a number.", de.Input)
	}
	if de != nil {
		return fmt.Sprintf("Please set the time limit [%s] between %d and %d hours.", de.Input, MinLimitHours, MaxLimitHours)
	}
	return fmt.Sprintf("Please set the time limit between %d and %d hours.", MinLimitHours, MaxLimitHours)
}

func MessageAccepted(word, nextChar string) string {
	return fmt.Sprintf("Good! That's %s. The next letter is %s!", word, nextChar)
}

func MessageMismatch(word, required string) string {
	return fmt.Sprintf("Too bad! That's %s. Draw something that starts with %s!", word, required)
}

func MessageDuplicate(word string) string {
	return fmt.Sprintf("Too bad! That's %s. It has already been used!", word)
}

func MessageUnclassifiable(required string) string {
	return fmt.Sprintf("Sorry! I couldn't tell what that picture is. Draw something that starts with %s!", required)
}

func MessageFileTooLarge(name string) string {
	return fmt.Sprintf("The file is too large: %s", name)
}

func MessageUnsupportedFile(name string) string {
	return fmt.Sprintf("Only .png/.jpg/.jpeg images can be processed: %s", name)
}

func MessageUndownloadable(name string) string {
	return fmt.Sprintf("The image could not be processed: %s", name)
}

func MessageChain(chain []string) string {
	return fmt.Sprintf("This round's shiritori was %s!", strings.Join(chain, "->"))
}

func MessageWinner(name string) string {
	return fmt.Sprintf("The winner is... %s, congratulations!", name)
}

// MessageOperationsFailure is the diagnostic posted to the operations channel.
func MessageOperationsFailure(op string, err error) string {
	return fmt.Sprintf("[%s] failed: %v", op, err)
}
