package sequence

// DefaultClips are the scripts a station cycles through when nobody is driving it.
var DefaultClips = []Clip{
	{
		// moving white peak
		Name:      "white-peak",
		Script:    "c!\ng@s\ns!*T_,0.1\ns\"+v!,P_\ns#tv\"\ns$*v#,v#\ns%*v#,v$\ns&*v%,v%\ns'*T_,0.03\ns(-1,v&\ns)l0.2,0.5,v&\ns*]v',v(,v)\nc+\n",
		DurationS: DefaultDurationS,
	},
	{
		Name:      "rainbow",
		Script:    "c!\ngAZ\ns!*T_,0.3\ns\"+v!,P_\ns#]v\",1,1\nc$\n",
		DurationS: DefaultDurationS,
	},
	{
		Name:      "red",
		Script:    "c!\ng@s\ns![0.3\nc\"\n",
		DurationS: DefaultDurationS,
	},
	{
		// rgb(0, 0, sin01(T + P))
		Name:      "blue-waves",
		Script:    "c!\ng@h\ns!+T_,P_\ns\"sv!\ns#[0,0,v\"\nc$\n",
		DurationS: DefaultDurationS,
	},
}
