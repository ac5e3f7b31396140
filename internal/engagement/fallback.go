package engagement

// FallbackPool holds pre-authored pairs used when generation is exhausted.
// The fallback path never fails and never calls the generation service.
var FallbackPool = []Pair{
	{
		Nudge: "🎮 Time for a vibe check with your groups! Here's a fun prompt if you need inspiration.",
		Prompt: "POV: You can only keep 3 apps on your phone for a month. " +
			"Which ones and why? Wrong answers only accepted too 😂",
	},
	{
		Nudge: "📸 Quick nudge to engage your squads! Try this creative prompt or make your own.",
		Prompt: "Hot take thread! Drop your most controversial (but harmless) opinion. " +
			"I'll start: Pineapple on pizza is actually elite. Fight me 🍕",
	},
	{
		Nudge: "🎯 Channel check-in time! Here's a discussion starter or freestyle it.",
		Prompt: "If your current mood was a song, what would it be? " +
			"Bonus points if you share the actual track 🎵",
	},
	{
		Nudge: "💭 Touch base with your crews when you can! Fun conversation idea attached.",
		Prompt: "Would you rather: Have to sing everything you say for a day OR " +
			"only communicate through interpretive dance? Explain your survival strategy 🕺",
	},
	{
		Nudge: "⚡ Weekly group engagement reminder! Spice things up with this prompt.",
		Prompt: "Rate your week using only emojis (max 5). " +
			"Then guess what happened based on someone else's emoji story 👀",
	},
	{
		Nudge: "🌟 Check in with your mentees! Here's a creative starter.",
		Prompt: "Quick! You're making a time capsule to open in 5 years. " +
			"What 3 things are you putting in and what message for future you?",
	},
}
