package dto

// ErrorResponse — стандартный ответ с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse — стандартный ответ с сообщением и данными.
type SuccessResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// AuthResponse — ответ на регистрацию, вход и refresh.
type AuthResponse struct {
	User         interface{} `json:"user,omitempty"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
}

// UnreadCountResponse — количество непрочитанных уведомлений.
type UnreadCountResponse struct {
	Count int `json:"count"`
}

// LogoResponse — результат загрузки логотипа.
type LogoResponse struct {
	LogoPath string `json:"logo_path"`
}
