package bot

const (
	msgNotAllowed = "This command is only available to administrators."
	msgTryAgain   = "Something went wrong, please try again later."

	msgWelcome         = "Welcome to Prompt Battle! Share your phone number with the button below to finish registration."
	msgWelcomeBack     = "You are registered. Wait for the next round and send your guess as a plain message."
	msgRoundInProgress = "You are already playing this round. Send your next guess as a plain message."
	msgRegistered      = "Registration complete. When a round is live, send your guess of the image prompt as a plain message."
	msgHelp            = "Admins publish an AI-generated image. Your job is to guess the prompt that produced it. " +
		"Send your guess as a plain message; the closer your wording is to the true prompt, the higher your score (0-100)."

	msgNoActiveRound  = "No round is live right now. You will get a message when the next one starts."
	msgRoundOver      = "This round is already over. Wait for the next one!"
	msgNoAttemptsLeft = "You have used all your attempts in this round."
	msgAlreadyWon     = "You already hit 100 in this round. Wait for the next one!"

	msgSubscribeFirst = "To play Prompt Battle you need to be a subscriber of our channel. Subscribe and try again."

	msgMakeGameUsage  = "Send a photo with the caption: /makegame <true prompt>"
	msgNoPendingGame  = "No queued games. Create one with /makegame first."
	msgNoActiveGame   = "No game is active."
	msgNoFinishedGame = "No finished games to export yet."

	captionNewRound = "New round! Guess the prompt behind this image and send it as a plain message."
)
