package constants

import "time"

// HeaderSeparatorLength is the length of the header separator line.
const HeaderSeparatorLength = 50

// BoxBorderPadding is the padding used in box borders.
const BoxBorderPadding = 2

// SpinnerTickerInterval is the interval between spinner frame updates.
const SpinnerTickerInterval = 80 * time.Millisecond
