package authsrv

// Template names registered on the notifx client.
const (
	templateVerifyEmail   = "verify_email"
	templateResetPassword = "reset_password"
)

const verifyEmailTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Verify your email</h2>
  <p>Hi {{.Name}},</p>
  <p>Welcome to {{.AppTitle}}. Please confirm your email address by clicking the link below. The link is valid once, for a limited time.</p>
  <p><a href="{{.Link}}" style="display:inline-block;padding:10px 20px;background:#2d6cdf;color:#fff;text-decoration:none;border-radius:4px;">Verify email</a></p>
  <p>If the button does not work, copy this URL into your browser:</p>
  <p>{{.Link}}</p>
  <p>If you did not create this account, you can ignore this message.</p>
</body>
</html>`

const resetPasswordTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Reset your password</h2>
  <p>Hi {{.Name}},</p>
  <p>We received a request to reset the password for your {{.AppTitle}} account. Click the link below to choose a new password. The link is valid once, for a limited time.</p>
  <p><a href="{{.Link}}" style="display:inline-block;padding:10px 20px;background:#2d6cdf;color:#fff;text-decoration:none;border-radius:4px;">Reset password</a></p>
  <p>If the button does not work, copy this URL into your browser:</p>
  <p>{{.Link}}</p>
  <p>If you did not request a password reset, you can ignore this message.</p>
</body>
</html>`

type emailTemplateData struct {
	Name     string
	AppTitle string
	Link     string
}
