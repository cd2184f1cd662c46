package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidParameter, err.Code)
	suite.Equal("invalid parameter", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeInvalidParameter, "invalid parameter: %s", "test")
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidParameter, err.Code)
	suite.Equal("invalid parameter: test", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestWrapError() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeDataNotFound, "data not found", cause)
	suite.NotNil(err)
	suite.Equal(ErrCodeDataNotFound, err.Code)
	suite.Equal("data not found", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("underlying error")
	err := Wrapf(ErrCodeDataNotFound, cause, "data not found for symbol: %s", "SBER")
	suite.NotNil(err)
	suite.Equal(ErrCodeDataNotFound, err.Code)
	suite.Equal("data not found for symbol: SBER", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestErrorString() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Equal("[100] invalid parameter", err.Error())
}

func (suite *ErrorTestSuite) TestErrorStringWithCause() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeDataNotFound, "data not found", cause)
	suite.Equal("[200] data not found: underlying error", err.Error())
}

func (suite *ErrorTestSuite) TestUnwrap() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeDataNotFound, "data not found", cause)
	suite.Equal(cause, err.Unwrap())
}

func (suite *ErrorTestSuite) TestUnwrapNil() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Nil(err.Unwrap())
}

func (suite *ErrorTestSuite) TestGetCode() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Equal(ErrCodeInvalidParameter, GetCode(err))
}

func (suite *ErrorTestSuite) TestGetCodeFromWrapped() {
	cause := New(ErrCodeDataNotFound, "data not found")
	err := Wrap(ErrCodeMarketDataFetchFailed, "failed to fetch candles", cause)
	// outermost code wins
	suite.Equal(ErrCodeMarketDataFetchFailed, GetCode(err))
}

func (suite *ErrorTestSuite) TestGetCodeFromStandardError() {
	err := errors.New("standard error")
	suite.Equal(ErrCodeUnknown, GetCode(err))
}

func (suite *ErrorTestSuite) TestGetCodeThroughFmtWrap() {
	err := fmt.Errorf("resolve period: %w", New(ErrCodeInvalidPeriod, "count must be positive"))
	suite.Equal(ErrCodeInvalidPeriod, GetCode(err))
}

func (suite *ErrorTestSuite) TestHasCode() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.True(HasCode(err, ErrCodeInvalidParameter))
	suite.False(HasCode(err, ErrCodeDataNotFound))
}

func (suite *ErrorTestSuite) TestIsError() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeDataNotFound, "data not found", cause)
	suite.True(Is(err, cause))
}

func (suite *ErrorTestSuite) TestAsError() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	var coded *Error
	suite.True(As(err, &coded))
	suite.Equal(ErrCodeInvalidParameter, coded.Code)
}

func (suite *ErrorTestSuite) TestErrorCodeCategory() {
	tests := []struct {
		name     string
		code     ErrorCode
		expected string
	}{
		{name: "general", code: ErrCodeUnknown, expected: "general"},
		{name: "validation", code: ErrCodeInvalidPeriod, expected: "validation"},
		{name: "data", code: ErrCodeDataNotFound, expected: "data"},
		{name: "market data", code: ErrCodeMarketDataFetchFailed, expected: "market data"},
		{name: "storage", code: ErrCodeShareNotFound, expected: "storage"},
		{name: "video", code: ErrCodeVideoRequestFailed, expected: "video"},
		{name: "out of range", code: ErrorCode(450), expected: "unknown"},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, tc.code.Category())
		})
	}
}

func (suite *ErrorTestSuite) TestInsufficientDataError() {
	err := &InsufficientDataError{
		Required: 30,
		Actual:   21,
		Symbol:   "GAZP",
		Message:  "only 21 trading days in window",
	}
	suite.Equal("only 21 trading days in window", err.Error())
	suite.Equal(9, err.Missing())
}

func (suite *ErrorTestSuite) TestInsufficientDataErrorDefaultMessage() {
	err := &InsufficientDataError{Required: 10, Actual: 4, Symbol: "LKOH"}
	suite.Equal("insufficient data for LKOH: required 10, got 4", err.Error())
}

func (suite *ErrorTestSuite) TestInsufficientDataErrorMissingNeverNegative() {
	err := NewInsufficientDataError(5, 7, "SBER", "")
	suite.Equal(0, err.Missing())
}

func (suite *ErrorTestSuite) TestNewInsufficientDataErrorf() {
	err := NewInsufficientDataErrorf(30, 12, "SBER", "expected %d trading days, got %d", 30, 12)
	suite.Equal(30, err.Required)
	suite.Equal(12, err.Actual)
	suite.Equal("SBER", err.Symbol)
	suite.Equal("expected 30 trading days, got 12", err.Message)
}

func (suite *ErrorTestSuite) TestIsInsufficientDataError() {
	insufficientErr := NewInsufficientDataError(14, 10, "SBER", "insufficient data")
	suite.True(IsInsufficientDataError(insufficientErr))
	suite.True(IsInsufficientDataError(fmt.Errorf("series: %w", insufficientErr)))

	suite.False(IsInsufficientDataError(errors.New("standard error")))
	suite.False(IsInsufficientDataError(New(ErrCodeInvalidParameter, "invalid parameter")))
	suite.False(IsInsufficientDataError(nil))
}

func (suite *ErrorTestSuite) TestGetCodeReportsOutermost() {
	inner := New(ErrCodeShareNotFound, "no share sber")
	outer := Wrap(ErrCodeMarketDataFetchFailed, "sync failed", inner)

	suite.Equal(ErrCodeMarketDataFetchFailed, GetCode(outer))
	suite.True(Is(outer, inner))

	var coded *Error
	suite.Require().True(As(outer.Cause, &coded))
	suite.Equal(ErrCodeShareNotFound, coded.Code)
}
