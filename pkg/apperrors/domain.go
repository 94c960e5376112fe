package apperrors

import (
	"net/http"
)

/*
Этот файл содержит предопределенные переменные
для частых ошибок бизнес-логики маркетплейса.
*/

// --- Auth & User Status ---

// ErrEmailAlreadyExists - email уже используется.
var ErrEmailAlreadyExists = New(CodeAlreadyExists, "auth", "User already exists", http.StatusConflict)

// ErrInvalidCredentials - неверный email или пароль.
var ErrInvalidCredentials = New(CodeInvalidCredentials, "auth", "Invalid credentials", http.StatusUnauthorized)

// ErrInvalidToken - неверный или просроченный токен.
var ErrInvalidToken = New(CodeInvalidToken, "auth", "Invalid or expired token", http.StatusUnauthorized)

// ErrUserInactive - аккаунт деактивирован.
var ErrUserInactive = New(CodeUnauthorized, "auth", "Account is deactivated", http.StatusUnauthorized)

// ErrInsufficientPermissions - роль не позволяет выполнить действие.
var ErrInsufficientPermissions = New(CodeForbidden, "auth", "Insufficient permissions", http.StatusForbidden)

// ErrWrongPassword - текущий пароль не совпал при смене пароля.
var ErrWrongPassword = New(CodeValidationFailed, "auth", "Current password is incorrect", http.StatusBadRequest)

// ErrUserNotFound - пользователь не найден.
var ErrUserNotFound = NotFound("user", "User not found")

// --- Pilot ---

var ErrPilotNotFound = NotFound("pilot", "Pilot not found")

var ErrPilotProfileExists = Conflict("pilot", "Pilot profile already exists")

var ErrPilotProfileRequired = ValidationMessage("pilot", "Pilot profile required")

var ErrPilotNotOwned = NewForbiddenError("Not authorized to update this profile")

var ErrInvalidPilotStatus = InvalidState("pilot", "Pilot status transition is not allowed")

// ErrNotEligibleToRate - оценку ставит только заказчик завершенной работы этого пилота.
var ErrNotEligibleToRate = NewForbiddenError("Only the property manager of a completed job can rate this pilot")

// --- Job ---

var ErrJobNotFound = NotFound("job", "Job not found")

var ErrJobNotOwned = NewForbiddenError("Not authorized to modify this job")

var ErrInvalidJobStatus = InvalidState("job", "Operation not allowed for the current job status")

// ErrJobNotOpenForBidding - работа не в статусе bidding или не публичная.
var ErrJobNotOpenForBidding = ValidationMessage("job", "Job is not open for bidding")

var ErrLucidSuiteOnlyJob = ValidationMessage("job", "This job is only open to Lucid Suite pilots")

// --- Bid ---

var ErrBidNotFound = NotFound("bid", "Bid not found")

var ErrDuplicateActiveBid = Conflict("bid", "You already have an active bid on this job")

var ErrPilotNotEligible = ValidationMessage("bid", "Pilot is not eligible to bid")

var ErrBidNotOwned = NewForbiddenError("Not authorized to act on this bid")

var ErrInvalidBidStatus = InvalidState("bid", "Bid status transition is not allowed")

// ErrBidNotAccepted - оплатить можно только принятую ставку.
var ErrBidNotAccepted = ValidationMessage("payment", "Bid must be accepted before payment")

// --- Payments & Subscriptions ---

var ErrPaymentNotFound = NotFound("payment", "Payment not found")

var ErrInvalidPaymentStatus = InvalidState("payment", "Payment status transition is not allowed")

var ErrPlanNotFound = ValidationMessage("subscription", "Invalid plan selected")

var ErrNoActiveSubscription = ValidationMessage("subscription", "No active subscription found")

// ErrPaymentProvider - общая ошибка интеграции с платежным провайдером.
var ErrPaymentProvider = New(CodeExternalServiceError, "payment", "Payment provider error", http.StatusBadGateway)

// --- Insurance ---

var ErrInsuranceNotFound = NotFound("insurance", "Insurance information not found")

var ErrInsuranceExists = Conflict("insurance", "Insurance record already exists")

var ErrInsuranceNotOwned = NewForbiddenError("Not authorized to modify this record")

var ErrInvalidFileType = New(CodeValidationFailed, "validation", "The provided file type is not allowed", http.StatusUnsupportedMediaType)

var ErrFileTooLarge = New(CodeValidationFailed, "validation", "File size exceeds the allowed limit", http.StatusRequestEntityTooLarge)

// --- Lucid Suite ---

var ErrLucidSuiteNotConnected = NotFound("lucid_suite", "No Lucid Suite connection found")

var ErrLucidSuiteAlreadyConnected = Conflict("lucid_suite", "Already connected to Lucid Suite")

var ErrLucidSuiteCustomerTaken = Conflict("lucid_suite", "Lucid Suite customer is linked to another account")

// --- Rate limit ---

var ErrTooManyRequests = New(CodeRateLimited, "request", "Too many requests from this IP, please try again later.", http.StatusTooManyRequests)
