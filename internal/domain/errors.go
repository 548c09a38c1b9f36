package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes engine failures surfaced to callers.
type ErrorCode string

const (
	CodeNotEligible              ErrorCode = "NOT_ELIGIBLE"
	CodeWrongLevel               ErrorCode = "WRONG_LEVEL"
	CodeStepInUse                ErrorCode = "STEP_IN_USE"
	CodeNodeFrozen               ErrorCode = "NODE_FROZEN"
	CodeUnknownEvent             ErrorCode = "UNKNOWN_EVENT"
	CodeImmutableIdentifier      ErrorCode = "IMMUTABLE_IDENTIFIER"
	CodeMandatoryPropertyMissing ErrorCode = "MANDATORY_PROPERTY_MISSING"
	CodeInvalidContainment       ErrorCode = "INVALID_CONTAINMENT"
	CodeInvalidPeriod            ErrorCode = "INVALID_PERIOD"
)

// CodedError is implemented by every typed engine error.
type CodedError interface {
	error
	ErrorCode() ErrorCode
}

// CodeOf returns the code of the first CodedError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var ce CodedError
	if errors.As(err, &ce) {
		return ce.ErrorCode(), true
	}
	return "", false
}

// NotEligibleError: time or event conditions unmet, or the node is not on the
// requested step. Recoverable.
type NotEligibleError struct {
	NodeID string
	Action string
	Reason string
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("%s: %s on node %s: %s", CodeNotEligible, e.Action, e.NodeID, e.Reason)
}

func (e *NotEligibleError) ErrorCode() ErrorCode { return CodeNotEligible }

// WrongLevelError: action invoked at folder level while disposition is
// record level, or vice versa.
type WrongLevelError struct {
	NodeID   string
	Action   string
	NodeKind NodeKind
	Governed NodeKind
}

func (e *WrongLevelError) Error() string {
	return fmt.Sprintf("%s: %s invoked on %s %s but disposition is applied at %s level",
		CodeWrongLevel, e.Action, e.NodeKind, e.NodeID, e.Governed)
}

func (e *WrongLevelError) ErrorCode() ErrorCode { return CodeWrongLevel }

// StepInUseError: a schedule step cannot be removed while nodes occupy it.
type StepInUseError struct {
	StepID    string
	StepName  string
	Occupants int
}

func (e *StepInUseError) Error() string {
	return fmt.Sprintf("%s: step %q (%s) is the current step of %d node(s)",
		CodeStepInUse, e.StepName, e.StepID, e.Occupants)
}

func (e *StepInUseError) ErrorCode() ErrorCode { return CodeStepInUse }

// NodeFrozenError: destructive action blocked by an active hold.
type NodeFrozenError struct {
	NodeID       string
	Action       string
	FrozenNodeID string
}

func (e *NodeFrozenError) Error() string {
	if e.FrozenNodeID != "" && e.FrozenNodeID != e.NodeID {
		return fmt.Sprintf("%s: %s on node %s blocked by hold on %s", CodeNodeFrozen, e.Action, e.NodeID, e.FrozenNodeID)
	}
	return fmt.Sprintf("%s: %s on node %s blocked by hold", CodeNodeFrozen, e.Action, e.NodeID)
}

func (e *NodeFrozenError) ErrorCode() ErrorCode { return CodeNodeFrozen }

// UnknownEventError: the event is not part of the current step.
type UnknownEventError struct {
	NodeID    string
	Action    string
	EventName string
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("%s: event %q is not part of step %q on node %s", CodeUnknownEvent, e.EventName, e.Action, e.NodeID)
}

func (e *UnknownEventError) ErrorCode() ErrorCode { return CodeUnknownEvent }

// ImmutableIdentifierError: identifier change attempted after declaration.
type ImmutableIdentifierError struct {
	NodeID     string
	Identifier string
}

func (e *ImmutableIdentifierError) Error() string {
	return fmt.Sprintf("%s: identifier %q of declared record %s cannot be changed", CodeImmutableIdentifier, e.Identifier, e.NodeID)
}

func (e *ImmutableIdentifierError) ErrorCode() ErrorCode { return CodeImmutableIdentifier }

// MandatoryPropertyMissingError: declaration attempted with unset metadata.
type MandatoryPropertyMissingError struct {
	NodeID     string
	Properties []string
}

func (e *MandatoryPropertyMissingError) Error() string {
	return fmt.Sprintf("%s: record %s is missing %s", CodeMandatoryPropertyMissing, e.NodeID, strings.Join(e.Properties, ", "))
}

func (e *MandatoryPropertyMissingError) ErrorCode() ErrorCode { return CodeMandatoryPropertyMissing }

// InvalidContainmentError: a node cannot be placed under the given parent.
type InvalidContainmentError struct {
	ParentID   string
	ParentKind NodeKind
	ChildKind  NodeKind
	Reason     string
}

func (e *InvalidContainmentError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s under %s %s: %s", CodeInvalidContainment, e.ChildKind, e.ParentKind, e.ParentID, e.Reason)
	}
	return fmt.Sprintf("%s: %s cannot be placed under %s %s", CodeInvalidContainment, e.ChildKind, e.ParentKind, e.ParentID)
}

func (e *InvalidContainmentError) ErrorCode() ErrorCode { return CodeInvalidContainment }

// InvalidPeriodError: unparsable period expression.
type InvalidPeriodError struct {
	Expression string
	Reason     string
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("%s: %q: %s", CodeInvalidPeriod, e.Expression, e.Reason)
}

func (e *InvalidPeriodError) ErrorCode() ErrorCode { return CodeInvalidPeriod }

func IsNotEligible(err error) bool {
	var e *NotEligibleError
	return errors.As(err, &e)
}

func IsWrongLevel(err error) bool {
	var e *WrongLevelError
	return errors.As(err, &e)
}

func IsStepInUse(err error) bool {
	var e *StepInUseError
	return errors.As(err, &e)
}

func IsNodeFrozen(err error) bool {
	var e *NodeFrozenError
	return errors.As(err, &e)
}

func IsUnknownEvent(err error) bool {
	var e *UnknownEventError
	return errors.As(err, &e)
}

func IsImmutableIdentifier(err error) bool {
	var e *ImmutableIdentifierError
	return errors.As(err, &e)
}

func IsMandatoryPropertyMissing(err error) bool {
	var e *MandatoryPropertyMissingError
	return errors.As(err, &e)
}

func IsInvalidContainment(err error) bool {
	var e *InvalidContainmentError
	return errors.As(err, &e)
}
