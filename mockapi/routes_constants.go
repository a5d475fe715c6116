package mockapi

import "github.com/jrsteele09/go-auth-client/apiclient"

// Route path constants
// The backend serves exactly the paths the client calls
const (
	RouteAuthLogin          = apiclient.LoginPath
	RouteAuthRegister       = apiclient.RegisterPath
	RouteAuthRefreshToken   = apiclient.RefreshTokenPath
	RouteAuthLogout         = apiclient.LogoutPath
	RouteAuthForgotPassword = apiclient.ForgotPasswordPath
	RouteAuthResetPassword  = apiclient.ResetPasswordPath
	RouteAuthMe             = apiclient.MePath
	RouteHealth             = "/healthz"
)
